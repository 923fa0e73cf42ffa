// Package term shows stats reports on a terminal dashboard that is
// refreshed on every sync.
package term

import (
	"context"
	"fmt"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mum4k/termdash"
	"github.com/mum4k/termdash/cell"
	"github.com/mum4k/termdash/container"
	"github.com/mum4k/termdash/keyboard"
	"github.com/mum4k/termdash/linestyle"
	"github.com/mum4k/termdash/terminal/termbox"
	"github.com/mum4k/termdash/terminal/terminalapi"
	"github.com/mum4k/termdash/widgets/text"
	"github.com/pkg/errors"

	"github.com/slok/infostats/internal/controller"
	"github.com/slok/infostats/internal/service/log"
	"github.com/slok/infostats/internal/view/render"
)

const (
	defHeaderColor     = "#58b4e0"
	defDiagnosticColor = "#e0b458"
	defErrorColor      = "#e05858"
	defRedrawInterval  = 250 * time.Millisecond
)

// Config is the configuration of the terminal view.
type Config struct {
	// Title of the dashboard border.
	Title string
	// Colors in hex format.
	HeaderColor     string
	DiagnosticColor string
	ErrorColor      string
	RedrawInterval  time.Duration
	Logger          log.Logger
}

func (c *Config) defaults() {
	if c.Title == "" {
		c.Title = "info stats"
	}
	if c.HeaderColor == "" {
		c.HeaderColor = defHeaderColor
	}
	if c.DiagnosticColor == "" {
		c.DiagnosticColor = defDiagnosticColor
	}
	if c.ErrorColor == "" {
		c.ErrorColor = defErrorColor
	}
	if c.RedrawInterval <= 0 {
		c.RedrawInterval = defRedrawInterval
	}
	if c.Logger == nil {
		c.Logger = log.Dummy
	}
}

// View is a terminal view of stats reports. It is a sink of the report
// syncer.
type View struct {
	cfg    Config
	text   *text.Text
	logger log.Logger

	headerColor     cell.Color
	diagnosticColor cell.Color
	errorColor      cell.Color
}

// New returns a new terminal view.
func New(cfg Config) (*View, error) {
	cfg.defaults()

	v := &View{cfg: cfg, logger: cfg.Logger}

	var err error
	for _, c := range []struct {
		hex string
		dst *cell.Color
	}{
		{cfg.HeaderColor, &v.headerColor},
		{cfg.DiagnosticColor, &v.diagnosticColor},
		{cfg.ErrorColor, &v.errorColor},
	} {
		*c.dst, err = colorHexToTermdash(c.hex)
		if err != nil {
			return nil, err
		}
	}

	v.text, err = text.New()
	if err != nil {
		return nil, errors.Wrap(err, "could not create text widget")
	}

	return v, nil
}

// Show satisfies page.Sink.
func (v *View) Show(r *controller.Report) error {
	v.text.Reset()

	lines := render.Lines(r)
	if len(lines) == 0 {
		return v.text.Write("no stats\n", text.WriteCellOpts(cell.FgColor(v.diagnosticColor)))
	}

	for _, l := range lines {
		var opts []text.WriteOption
		switch l.Kind {
		case render.LineHeader:
			opts = append(opts, text.WriteCellOpts(cell.FgColor(v.headerColor)))
		case render.LineDiagnostic:
			opts = append(opts, text.WriteCellOpts(cell.FgColor(v.diagnosticColor)))
		}
		if err := v.text.Write(l.Text+"\n", opts...); err != nil {
			return err
		}
	}

	return nil
}

// ShowError satisfies page.Sink.
func (v *View) ShowError(err error) error {
	v.text.Reset()
	return v.text.Write(fmt.Sprintf("%s\n", err), text.WriteCellOpts(cell.FgColor(v.errorColor)))
}

// Run shows the view on the terminal until the context is done or the
// user quits with 'q' or Esc.
func (v *View) Run(ctx context.Context) error {
	t, err := termbox.New(termbox.ColorMode(terminalapi.ColorMode256))
	if err != nil {
		return errors.Wrap(err, "could not open the terminal")
	}
	defer t.Close()

	c, err := container.New(t,
		container.Border(linestyle.Light),
		container.BorderTitle(" "+v.cfg.Title+" (q to quit) "),
		container.PlaceWidget(v.text),
	)
	if err != nil {
		return errors.Wrap(err, "could not create the dashboard")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quitter := func(k *terminalapi.Keyboard) {
		if k.Key == 'q' || k.Key == 'Q' || k.Key == keyboard.KeyEsc {
			cancel()
		}
	}

	v.logger.Debugf("terminal view running")
	return termdash.Run(ctx, t, c, termdash.KeyboardSubscriber(quitter), termdash.RedrawInterval(v.cfg.RedrawInterval))
}

func colorHexToTermdash(color string) (cell.Color, error) {
	c, err := colorful.Hex(color)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid color %q", color)
	}

	r, g, b := c.RGB255()
	return cell.ColorRGB24(int(r), int(g), int(b)), nil
}
