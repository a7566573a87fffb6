package metrics

import (
	"context"
	"fmt"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/doeshing/notchd/internal/domain"
	"github.com/doeshing/notchd/internal/ports"
)

// TicksReader returns the cumulative CPU tick counters. The default reader
// uses the host statistics call via gopsutil; tests substitute canned
// counters.
type TicksReader func(context.Context) (domain.CPUTicks, error)

// CPUSource derives utilization from the delta between consecutive tick
// snapshots. The previous snapshot is the only persisted aggregation state.
type CPUSource struct {
	read TicksReader

	mu   sync.Mutex
	prev *domain.CPUTicks
	last float64
}

// NewCPUSource builds a CPU source backed by the host statistics call.
func NewCPUSource() *CPUSource {
	return &CPUSource{read: readHostTicks}
}

// NewCPUSourceWithReader builds a CPU source with a custom tick reader.
func NewCPUSourceWithReader(read TicksReader) *CPUSource {
	return &CPUSource{read: read}
}

func (s *CPUSource) Kind() domain.ResourceKind {
	return domain.ResourceCPU
}

// Sample implements ports.MetricSource. With a previous snapshot,
// utilization = 1 - Δidle/Δtotal; Δtotal <= 0 holds the last value. The
// first sample computes from the absolute counters since boot. Read
// failures return an error so the sampler holds the published value.
func (s *CPUSource) Sample(ctx context.Context) (float64, error) {
	curr, err := s.read(ctx)
	if err != nil {
		return 0, fmt.Errorf("read cpu ticks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prev == nil {
		s.last = curr.Utilization()
		s.prev = &curr
		return s.last, nil
	}

	if usage, ok := domain.CPUDelta(*s.prev, curr); ok {
		s.last = usage
	}
	s.prev = &curr
	return s.last, nil
}

func readHostTicks(ctx context.Context) (domain.CPUTicks, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return domain.CPUTicks{}, err
	}
	if len(times) == 0 {
		return domain.CPUTicks{}, fmt.Errorf("no aggregate cpu times reported")
	}
	t := times[0]
	return domain.CPUTicks{
		User:   t.User,
		System: t.System,
		Idle:   t.Idle,
		Nice:   t.Nice,
	}, nil
}

var _ ports.MetricSource = (*CPUSource)(nil)
