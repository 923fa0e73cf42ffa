package page_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/infostats/internal/controller"
	mcontroller "github.com/slok/infostats/internal/mocks/controller"
	"github.com/slok/infostats/internal/model"
	"github.com/slok/infostats/internal/service/stats"
	"github.com/slok/infostats/internal/view/page"
	"github.com/slok/infostats/internal/view/render"
	viewsync "github.com/slok/infostats/internal/view/sync"
)

func TestReportSync(t *testing.T) {
	report := &controller.Report{
		Target: model.TargetVM,
		Catalog: stats.NewCatalog(model.Schema{
			Provider: model.ProviderKVM,
			Target:   model.TargetVM,
			Entries:  []model.SchemaEntry{{Name: "x", Type: model.MetricTypeScalar, Scale: model.Scale{Base: 10, Unit: model.UnitBytes}}},
		}),
		Results: []model.ResultSet{{
			Provider: model.ProviderKVM,
			Entries:  []model.ResultEntry{{Name: "x", Value: model.ScalarValue(42)}},
		}},
	}
	qerr := &controller.QueryError{Kind: controller.KindInvalidArgument, Msg: "invalid stats target foo"}

	tests := []struct {
		name   string
		query  controller.Query
		report *controller.Report
		err    error
		exp    string
		expErr bool
	}{
		{
			name:   "Reports are rendered on every sink.",
			query:  controller.Query{Target: "vm"},
			report: report,
			exp:    "    x (scalar, B): 42\n",
		},
		{
			name:   "Query errors are a single line and are returned.",
			query:  controller.Query{Target: "foo"},
			err:    qerr,
			exp:    "invalid stats target foo\n",
			expErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mc := &mcontroller.Controller{}
			mc.On("QueryStats", mock.Anything, test.query).Once().Return(test.report, test.err)

			var b1, b2 bytes.Buffer
			s, err := page.NewReport(page.ReportCfg{
				Controller: mc,
				Sinks: []page.Sink{
					page.NewWriterSink(&b1, render.NewText()),
					page.NewWriterSink(&b2, render.NewText()),
				},
			}, nil)
			require.NoError(t, err)

			err = s.Sync(context.Background(), &viewsync.Request{Query: test.query})
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, test.exp, b1.String())
			assert.Equal(t, test.exp, b2.String())
			mc.AssertExpectations(t)
		})
	}
}

type failingSink struct{}

func (failingSink) Show(*controller.Report) error { return errors.New("render failed") }
func (failingSink) ShowError(error) error         { return errors.New("render failed") }

func TestReportSyncReturnsSinkErrors(t *testing.T) {
	report := &controller.Report{Target: model.TargetVM, Catalog: stats.NewCatalog()}
	query := controller.Query{Target: "vm"}

	mc := &mcontroller.Controller{}
	mc.On("QueryStats", mock.Anything, query).Once().Return(report, nil)

	var b bytes.Buffer
	s, err := page.NewReport(page.ReportCfg{
		Controller: mc,
		Sinks:      []page.Sink{failingSink{}, page.NewWriterSink(&b, render.NewText())},
	}, nil)
	require.NoError(t, err)

	err = s.Sync(context.Background(), &viewsync.Request{Query: query})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render failed")
	mc.AssertExpectations(t)
}

func TestNewReportValidation(t *testing.T) {
	_, err := page.NewReport(page.ReportCfg{}, nil)
	assert.Error(t, err)

	_, err = page.NewReport(page.ReportCfg{Controller: &mcontroller.Controller{}}, nil)
	assert.Error(t, err)
}
