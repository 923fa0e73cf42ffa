package host

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
	gohost "github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Memory is the memory usage of the machine in bytes.
type Memory struct {
	Total     uint64
	Used      uint64
	Available uint64
	SwapUsed  uint64
}

// Load is the load average of the machine.
type Load struct {
	Load1  float64
	Load5  float64
	Load15 float64
}

// CPUTimes are the seconds a CPU spent in each mode.
type CPUTimes struct {
	User   float64
	System float64
	Idle   float64
	Iowait float64
	Steal  float64
}

// System reads the statistics of the machine.
type System interface {
	CPUCount(ctx context.Context) (int, error)
	Memory(ctx context.Context) (Memory, error)
	Load(ctx context.Context) (*Load, error)
	Uptime(ctx context.Context) (uint64, error)
	// CPUTimes returns the times of every logical CPU, indexed by CPU.
	CPUTimes(ctx context.Context) ([]CPUTimes, error)
}

// gopsutilSystem reads the statistics with gopsutil.
type gopsutilSystem struct{}

func (gopsutilSystem) CPUCount(ctx context.Context) (int, error) {
	return cpu.CountsWithContext(ctx, true)
}

func (gopsutilSystem) Memory(ctx context.Context) (Memory, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, err
	}

	m := Memory{Total: v.Total, Used: v.Used, Available: v.Available}

	// Swap is optional.
	if s, err := mem.SwapMemoryWithContext(ctx); err == nil {
		m.SwapUsed = s.Used
	}

	return m, nil
}

func (gopsutilSystem) Load(ctx context.Context) (*Load, error) {
	a, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return &Load{Load1: a.Load1, Load5: a.Load5, Load15: a.Load15}, nil
}

func (gopsutilSystem) Uptime(ctx context.Context) (uint64, error) {
	return gohost.UptimeWithContext(ctx)
}

func (gopsutilSystem) CPUTimes(ctx context.Context) ([]CPUTimes, error) {
	ts, err := cpu.TimesWithContext(ctx, true)
	if err != nil {
		return nil, err
	}

	times := make([]CPUTimes, 0, len(ts))
	for _, t := range ts {
		times = append(times, CPUTimes{
			User:   t.User,
			System: t.System,
			Idle:   t.Idle,
			Iowait: t.Iowait,
			Steal:  t.Steal,
		})
	}
	return times, nil
}
