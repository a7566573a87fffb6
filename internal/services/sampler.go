package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/doeshing/notchd/internal/domain"
	"github.com/doeshing/notchd/internal/ports"
)

// Sampler periodically gathers one utilization fraction per resource kind
// and publishes the completed sample as a group. Sub-sampler failures
// degrade to the last published value for that resource; a tick never
// aborts. The loop runs only between Start and Stop, mirroring the host
// surface's expanded/collapsed lifecycle, so no subprocesses spawn while
// the surface is hidden.
type Sampler struct {
	Sources   []ports.MetricSource
	Publisher ports.SamplePublisher
	Logger    ports.Logger
	Settings  domain.SamplingSettings

	mu      sync.Mutex
	last    domain.MetricSample
	history *domain.SampleHistory
	tick    uint64

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSampler builds a sampler with the given sources and history depth.
func NewSampler(settings domain.SamplingSettings, historyDepth int, sources []ports.MetricSource, publisher ports.SamplePublisher, log ports.Logger) *Sampler {
	return &Sampler{
		Sources:   sources,
		Publisher: publisher,
		Logger:    log,
		Settings:  settings,
		history:   domain.NewSampleHistory(historyDepth),
	}
}

// Start begins the repeating sampling loop. Calling Start while the loop is
// running is a no-op, so repeated expand events are safe.
func (s *Sampler) Start(ctx context.Context) error {
	if len(s.Sources) == 0 {
		return errors.New("services.Sampler has no metric sources")
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	if s.Logger != nil {
		s.Logger.Info("sampler started", map[string]interface{}{
			"period": s.Settings.TickPeriod().String(),
		})
	}
	return nil
}

// Stop halts the loop and waits for the in-flight tick to finish.
// Calling Stop while idle is a no-op, so repeated collapse events are safe.
func (s *Sampler) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	if s.Logger != nil {
		s.Logger.Info("sampler stopped", nil)
	}
}

// Running reports whether the loop is active.
func (s *Sampler) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.cancel != nil
}

func (s *Sampler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.Settings.TickPeriod())
	defer ticker.Stop()

	// First tick fires immediately so the gauges fill on expand.
	s.SampleOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SampleOnce(ctx)
		}
	}
}

// SampleOnce gathers the sub-samples due on this tick, then stores and
// publishes the result atomically as a group (last-write-wins per tick).
// Resources with a longer configured interval than the tick period refresh
// every Stride ticks and carry their prior value in between, so a 1-minute
// disk interval does not spawn df every tick.
func (s *Sampler) SampleOnce(ctx context.Context) domain.MetricSample {
	if ctx.Err() != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.last
	}

	s.mu.Lock()
	sample := s.last
	tick := s.tick
	s.tick++
	s.mu.Unlock()

	for _, source := range s.Sources {
		if tick%uint64(s.Settings.Stride(source.Kind())) != 0 {
			continue
		}
		value, err := s.sampleSource(ctx, source)
		if err != nil {
			// Fail soft: hold the last published value for this resource.
			if s.Logger != nil {
				s.Logger.Warn("metric source failed", map[string]interface{}{
					"kind":  string(source.Kind()),
					"error": err.Error(),
				})
			}
			continue
		}
		sample.SetValue(source.Kind(), domain.Clamp01(value))
	}
	sample.Timestamp = time.Now()

	s.mu.Lock()
	s.last = sample
	s.history.Push(sample)
	s.mu.Unlock()

	if s.Publisher != nil {
		s.Publisher.Publish(sample)
	}
	return sample
}

func (s *Sampler) sampleSource(ctx context.Context, source ports.MetricSource) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Settings.Timeout())
	defer cancel()
	return source.Sample(ctx)
}

// Latest returns the most recent published sample.
func (s *Sampler) Latest() (domain.MetricSample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Latest()
}

// History returns the samples published within d, oldest first.
func (s *Sampler) History(d time.Duration) []domain.MetricSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Window(d)
}
