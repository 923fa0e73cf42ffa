package model

import "fmt"

// Provider identifies a subsystem that exposes statistics.
type Provider string

// Known providers, in enumeration order.
const (
	ProviderKVM       Provider = "kvm"
	ProviderCryptodev Provider = "cryptodev"
	ProviderHost      Provider = "host"
)

var providers = []Provider{ProviderKVM, ProviderCryptodev, ProviderHost}

// Providers returns every known provider in enumeration order.
func Providers() []Provider {
	ps := make([]Provider, len(providers))
	copy(ps, providers)
	return ps
}

// ParseProvider returns the provider with the given name.
func ParseProvider(s string) (Provider, error) {
	for _, p := range providers {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// Target is the scope of a stats query.
type Target string

// Targets.
const (
	// TargetVM is the whole system.
	TargetVM Target = "vm"
	// TargetVCPU is a single execution unit.
	TargetVCPU Target = "vcpu"
)

// ParseTarget returns the target with the given name.
func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case TargetVM, TargetVCPU:
		return Target(s), nil
	}
	return "", fmt.Errorf("unknown target %q", s)
}
