package qmp

import (
	"bufio"
	"context"
	"net"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/slok/infostats/internal/model"
	"github.com/slok/infostats/internal/service/log"
	"github.com/slok/infostats/internal/service/stats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DialFunc opens a connection to a QMP server.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Config is the configuration of the QMP stats source.
type Config struct {
	// Socket is the path of the QMP unix socket.
	Socket string
	// CPUIndex is the index of the vCPU used for vcpu queries.
	CPUIndex int
	// DialTimeout is the maximum time to connect, 0 means no limit other
	// than the context.
	DialTimeout time.Duration
	// Dial is used to connect, by default a unix socket dialer.
	Dial   DialFunc
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Socket == "" {
		return errors.New("QMP socket path is required")
	}
	if c.CPUIndex < 0 {
		return errors.New("CPU index can't be negative")
	}
	if c.Dial == nil {
		d := &net.Dialer{Timeout: c.DialTimeout}
		c.Dial = d.DialContext
	}
	if c.Logger == nil {
		c.Logger = log.Dummy
	}
	return nil
}

// Client is a stats source that talks QMP to a QEMU instance. Every
// operation opens its own session.
type Client struct {
	cfg    Config
	logger log.Logger
}

// NewClient returns a new QMP stats source.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, err
	}

	return &Client{
		cfg:    cfg,
		logger: cfg.Logger.WithField("source", "qmp"),
	}, nil
}

// GatherSchemas satisfies stats.Gatherer.
func (c *Client) GatherSchemas(ctx context.Context, provider *model.Provider) (*stats.Catalog, error) {
	var args interface{}
	if provider != nil {
		args = schemasArgs{Provider: string(*provider)}
	}

	var resp []statsSchema
	if err := c.execute(ctx, "query-stats-schemas", args, &resp); err != nil {
		return nil, err
	}

	cat := stats.NewCatalog()
	for _, s := range resp {
		cat.Add(s.toModel())
	}

	return cat, nil
}

// GatherStats satisfies stats.Gatherer.
func (c *Client) GatherStats(ctx context.Context, filter model.RequestFilter) ([]model.ResultSet, error) {
	var resp []statsResult
	if err := c.execute(ctx, "query-stats", newStatsFilter(filter), &resp); err != nil {
		return nil, err
	}

	rss := make([]model.ResultSet, 0, len(resp))
	for _, r := range resp {
		rs, err := r.toModel()
		if err != nil {
			return nil, err
		}
		rss = append(rss, rs)
	}

	return rss, nil
}

// CurrentUnit satisfies stats.UnitResolver. It returns the QOM path of the
// configured vCPU.
func (c *Client) CurrentUnit(ctx context.Context) (string, error) {
	var cpus []cpuInfo
	if err := c.execute(ctx, "query-cpus-fast", nil, &cpus); err != nil {
		return "", err
	}

	for _, cpu := range cpus {
		if cpu.CPUIndex == c.cfg.CPUIndex {
			return cpu.QOMPath, nil
		}
	}

	return "", errors.Errorf("CPU %d not found", c.cfg.CPUIndex)
}

func (c *Client) execute(ctx context.Context, cmd string, args, out interface{}) error {
	s, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	c.logger.Debugf("executing %s", cmd)
	return s.execute(cmd, args, out)
}

func (c *Client) connect(ctx context.Context) (*session, error) {
	conn, err := c.cfg.Dial(ctx, "unix", c.cfg.Socket)
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to %s", c.cfg.Socket)
	}

	s := newSession(ctx, conn)
	if err := s.handshake(); err != nil {
		s.close()
		return nil, err
	}

	return s, nil
}

// session is a negotiated QMP connection.
type session struct {
	conn net.Conn
	dec  *jsoniter.Decoder
	enc  *jsoniter.Encoder
	done chan struct{}
}

func newSession(ctx context.Context, conn net.Conn) *session {
	s := &session{
		conn: conn,
		dec:  json.NewDecoder(bufio.NewReader(conn)),
		enc:  json.NewEncoder(conn),
		done: make(chan struct{}),
	}

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	// Unblock reads and writes when the context ends.
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-s.done:
		}
	}()

	return s
}

func (s *session) close() {
	close(s.done)
	_ = s.conn.Close()
}

func (s *session) handshake() error {
	var g greeting
	if err := s.dec.Decode(&g); err != nil {
		return errors.Wrap(err, "could not read QMP greeting")
	}
	if g.QMP == nil {
		return errors.New("invalid QMP greeting")
	}

	return s.execute("qmp_capabilities", nil, nil)
}

func (s *session) execute(cmd string, args, out interface{}) error {
	if err := s.enc.Encode(command{Execute: cmd, Arguments: args}); err != nil {
		return errors.Wrapf(err, "could not send %s", cmd)
	}

	for {
		var r response
		if err := s.dec.Decode(&r); err != nil {
			return errors.Wrapf(err, "could not read %s response", cmd)
		}

		switch {
		case r.Event != "":
			// Asynchronous events can come before the response.
			continue
		case r.Error != nil:
			return r.Error
		case r.Return == nil:
			return errors.Errorf("invalid %s response", cmd)
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(r.Return, out); err != nil {
			return errors.Wrapf(err, "could not decode %s response", cmd)
		}
		return nil
	}
}
