// Package render renders stats reports for an operator.
package render

import (
	"io"

	"github.com/slok/infostats/internal/controller"
)

// Renderer knows how to render stats reports and the errors of the queries
// that could not produce one.
type Renderer interface {
	// Render writes the report.
	Render(w io.Writer, r *controller.Report) error
	// RenderError writes a query error as a single line.
	RenderError(w io.Writer, err error) error
}
