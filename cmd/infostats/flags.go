package main

import (
	"time"

	"github.com/alecthomas/kingpin"
)

const (
	sourceQMP      = "qmp"
	sourceHost     = "host"
	sourceSnapshot = "snapshot"

	outputText       = "text"
	outputPrometheus = "prometheus"
	outputInflux     = "influx"
)

// optionalString is a kingpin value that knows if it has been set.
type optionalString struct {
	v *string
}

func (o *optionalString) Set(s string) error {
	o.v = &s
	return nil
}

func (o *optionalString) String() string {
	if o.v == nil {
		return ""
	}
	return *o.v
}

// cmdFlags are the command line flags and arguments. Zero values mean not
// set so the config file and the defaults can fill them.
type cmdFlags struct {
	configFile string
	source     string
	socket     string
	snapshot   string
	cpu        int
	output     string
	watch      bool
	refresh    time.Duration
	timeout    time.Duration
	retries    int
	cacheTTL   time.Duration
	legacy     bool
	srcMetrics bool
	debug      bool

	target   string
	names    optionalString
	provider optionalString
}

func newCmdFlags(args []string) (*cmdFlags, error) {
	c := &cmdFlags{}
	app := kingpin.New("infostats", "Shows the runtime statistics of a virtual machine or of the host.")
	app.Version(Version)
	app.DefaultEnvars()

	app.Flag("config", "YAML configuration file.").Short('c').StringVar(&c.configFile)
	app.Flag("source", "The stats source.").Short('s').EnumVar(&c.source, sourceQMP, sourceHost, sourceSnapshot)
	app.Flag("socket", "The QMP unix socket of the virtual machine.").StringVar(&c.socket)
	app.Flag("snapshot", "The YAML stats snapshot file.").StringVar(&c.snapshot)
	app.Flag("cpu", "The CPU index used for vcpu queries.").Default("-1").IntVar(&c.cpu)
	app.Flag("output", "The output format.").Short('o').EnumVar(&c.output, outputText, outputPrometheus, outputInflux)
	app.Flag("watch", "Refresh the stats until interrupted.").Short('w').BoolVar(&c.watch)
	app.Flag("refresh", "The refresh interval when watching.").Short('r').DurationVar(&c.refresh)
	app.Flag("timeout", "The timeout of every source query.").DurationVar(&c.timeout)
	app.Flag("retries", "The maximum attempts of every source query.").Default("-1").IntVar(&c.retries)
	app.Flag("cache-ttl", "How long the stats schemas are cached.").DurationVar(&c.cacheTTL)
	app.Flag("legacy", "Query the source once with no timeout and no cache.").BoolVar(&c.legacy)
	app.Flag("source-metrics", "Add the source query metrics to the prometheus output.").BoolVar(&c.srcMetrics)
	app.Flag("debug", "Enable debug mode.").BoolVar(&c.debug)

	app.Arg("target", "The stats target: vm or vcpu.").Required().StringVar(&c.target)
	app.Arg("names", "Comma separated stat names, * for all of them.").SetValue(&c.names)
	app.Arg("provider", "The stats provider.").SetValue(&c.provider)

	if _, err := app.Parse(args); err != nil {
		return nil, err
	}

	return c, nil
}
