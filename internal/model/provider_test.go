package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/infostats/internal/model"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected model.Provider
		expErr   bool
	}{
		{name: "kvm", input: "kvm", expected: model.ProviderKVM},
		{name: "cryptodev", input: "cryptodev", expected: model.ProviderCryptodev},
		{name: "host", input: "host", expected: model.ProviderHost},
		{name: "Unknown provider should fail", input: "xen", expErr: true},
		{name: "Matching is case sensitive", input: "KVM", expErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := model.ParseProvider(test.input)
			if test.expErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestParseTarget(t *testing.T) {
	got, err := model.ParseTarget("vm")
	require.NoError(t, err)
	assert.Equal(t, model.TargetVM, got)

	got, err = model.ParseTarget("vcpu")
	require.NoError(t, err)
	assert.Equal(t, model.TargetVCPU, got)

	_, err = model.ParseTarget("cpu")
	assert.Error(t, err)
}

func TestProvidersReturnsCopy(t *testing.T) {
	ps := model.Providers()
	ps[0] = "changed"

	assert.Equal(t, model.ProviderKVM, model.Providers()[0])
}
