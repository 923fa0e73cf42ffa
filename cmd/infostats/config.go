package main

import (
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/slok/infostats/internal/service/stats"
)

// duration supports YAML strings like "5s" or "1m30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: unsupported duration format", value.Line)
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", value.Value)
	}
	d.Duration = parsed
	return nil
}

// fileConfig is the configuration file, every field is optional.
type fileConfig struct {
	Source        string   `yaml:"source"`
	Socket        string   `yaml:"socket"`
	Snapshot      string   `yaml:"snapshot"`
	CPU           *int     `yaml:"cpu"`
	Output        string   `yaml:"output"`
	Watch         bool     `yaml:"watch"`
	Refresh       duration `yaml:"refresh"`
	Timeout       duration `yaml:"timeout"`
	Retries       *int     `yaml:"retries"`
	CacheTTL      duration `yaml:"cache_ttl"`
	Legacy        bool     `yaml:"legacy"`
	SourceMetrics bool     `yaml:"source_metrics"`
	Debug         bool     `yaml:"debug"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", path)
	}

	fc := &fileConfig{}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, errors.Wrapf(err, "could not decode config file %s", path)
	}
	return fc, nil
}

// config is the resolved configuration of the command.
type config struct {
	Source        string
	Socket        string
	Snapshot      string
	CPU           int
	Output        string
	Watch         bool
	Refresh       time.Duration
	SourceMetrics bool
	Debug         bool
	Gather        stats.GatherConfig
}

func defaultConfig() config {
	return config{
		Source:  sourceQMP,
		Output:  outputText,
		Refresh: 2 * time.Second,
		Gather:  stats.DefaultGatherConfig(),
	}
}

// resolveConfig layers the configuration: defaults < file < flags and
// environment.
func resolveConfig(flags *cmdFlags, fc *fileConfig) (config, error) {
	cfg := defaultConfig()
	if fc == nil {
		fc = &fileConfig{}
	}

	legacy := flags.legacy || fc.Legacy
	if legacy {
		cfg.Gather = stats.LegacyGatherConfig()
	}

	cfg.Source = firstString(flags.source, fc.Source, cfg.Source)
	cfg.Socket = firstString(flags.socket, fc.Socket, cfg.Socket)
	cfg.Snapshot = firstString(flags.snapshot, fc.Snapshot, cfg.Snapshot)
	cfg.Output = firstString(flags.output, fc.Output, cfg.Output)
	cfg.Watch = flags.watch || fc.Watch
	cfg.SourceMetrics = flags.srcMetrics || fc.SourceMetrics
	cfg.Debug = flags.debug || fc.Debug
	cfg.Refresh = firstDuration(flags.refresh, fc.Refresh.Duration, cfg.Refresh)

	switch {
	case flags.cpu >= 0:
		cfg.CPU = flags.cpu
	case fc.CPU != nil:
		cfg.CPU = *fc.CPU
	}

	if !legacy {
		cfg.Gather.QueryTimeout = firstDuration(flags.timeout, fc.Timeout.Duration, cfg.Gather.QueryTimeout)
		cfg.Gather.CacheTTL = firstDuration(flags.cacheTTL, fc.CacheTTL.Duration, cfg.Gather.CacheTTL)
		switch {
		case flags.retries >= 0:
			cfg.Gather.MaxRetries = flags.retries
		case fc.Retries != nil:
			cfg.Gather.MaxRetries = *fc.Retries
		}
	}

	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch c.Source {
	case sourceQMP:
		if c.Socket == "" {
			return errors.New("the qmp source requires a socket")
		}
	case sourceSnapshot:
		if c.Snapshot == "" {
			return errors.New("the snapshot source requires a snapshot file")
		}
	case sourceHost:
	default:
		return errors.Errorf("unknown source %q", c.Source)
	}

	switch c.Output {
	case outputText, outputPrometheus, outputInflux:
	default:
		return errors.Errorf("unknown output %q", c.Output)
	}

	if c.CPU < 0 {
		return errors.New("CPU index can't be negative")
	}

	return nil
}

func firstString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

func firstDuration(ds ...time.Duration) time.Duration {
	for _, d := range ds {
		if d > 0 {
			return d
		}
	}
	return 0
}
