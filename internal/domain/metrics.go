// Package domain defines core business entities and value objects for notchd.
//
// This file contains the resource-utilization types produced by the metrics
// sampler. The domain layer is independent of infrastructure concerns and
// represents pure business logic and data structures.
package domain

import "time"

// ResourceKind identifies one of the sampled system resources.
type ResourceKind string

const (
	ResourceCPU  ResourceKind = "cpu"
	ResourceRAM  ResourceKind = "ram"
	ResourceDisk ResourceKind = "disk"
	ResourceGPU  ResourceKind = "gpu"
)

// AllResources lists the sampled kinds in publication order.
var AllResources = []ResourceKind{ResourceCPU, ResourceRAM, ResourceDisk, ResourceGPU}

// MetricSample is one complete sampling tick: a utilization fraction in
// [0,1] per resource plus the time the tick completed. Samples supersede
// each other; they are never merged.
type MetricSample struct {
	CPU       float64   `json:"cpu"`
	RAM       float64   `json:"ram"`
	Disk      float64   `json:"disk"`
	GPU       float64   `json:"gpu"`
	Timestamp time.Time `json:"timestamp"`
}

// Value returns the fraction for the given resource kind.
func (s MetricSample) Value(kind ResourceKind) float64 {
	switch kind {
	case ResourceCPU:
		return s.CPU
	case ResourceRAM:
		return s.RAM
	case ResourceDisk:
		return s.Disk
	case ResourceGPU:
		return s.GPU
	default:
		return 0
	}
}

// SetValue stores the fraction for the given resource kind.
func (s *MetricSample) SetValue(kind ResourceKind, v float64) {
	switch kind {
	case ResourceCPU:
		s.CPU = v
	case ResourceRAM:
		s.RAM = v
	case ResourceDisk:
		s.Disk = v
	case ResourceGPU:
		s.GPU = v
	}
}

// CPUTicks is a snapshot of the cumulative OS tick counters per scheduling
// category. Counters only grow; utilization is derived from the delta
// between two snapshots.
type CPUTicks struct {
	User   float64
	System float64
	Idle   float64
	Nice   float64
}

// Total returns the sum of all counters.
func (t CPUTicks) Total() float64 {
	return t.User + t.System + t.Idle + t.Nice
}

// Utilization computes the busy fraction from absolute counters. Used for
// the very first sample, before a previous snapshot exists.
func (t CPUTicks) Utilization() float64 {
	total := t.Total()
	if total <= 0 {
		return 0
	}
	return Clamp01(1 - t.Idle/total)
}

// CPUDelta computes utilization between two snapshots as 1 - Δidle/Δtotal.
// ok is false when Δtotal <= 0, in which case the caller must hold the
// previously published value.
func CPUDelta(prev, curr CPUTicks) (usage float64, ok bool) {
	deltaTotal := curr.Total() - prev.Total()
	if deltaTotal <= 0 {
		return 0, false
	}
	deltaIdle := curr.Idle - prev.Idle
	return Clamp01(1 - deltaIdle/deltaTotal), true
}

// Clamp01 bounds v to the [0,1] range.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SampleHistory is a bounded ring of recent samples, newest last.
type SampleHistory struct {
	depth   int
	samples []MetricSample
}

// NewSampleHistory builds a history bounded to depth entries.
func NewSampleHistory(depth int) *SampleHistory {
	if depth <= 0 {
		depth = DefaultSampleHistoryDepth
	}
	return &SampleHistory{depth: depth}
}

// Push appends a sample, evicting the oldest entry once the ring is full.
func (h *SampleHistory) Push(sample MetricSample) {
	h.samples = append(h.samples, sample)
	if len(h.samples) > h.depth {
		h.samples = h.samples[len(h.samples)-h.depth:]
	}
}

// Window returns the samples taken within the given duration, oldest first.
func (h *SampleHistory) Window(d time.Duration) []MetricSample {
	cutoff := time.Now().Add(-d)
	var out []MetricSample
	for _, s := range h.samples {
		if s.Timestamp.After(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of retained samples.
func (h *SampleHistory) Len() int {
	return len(h.samples)
}

// Latest returns the most recent sample, if any.
func (h *SampleHistory) Latest() (MetricSample, bool) {
	if len(h.samples) == 0 {
		return MetricSample{}, false
	}
	return h.samples[len(h.samples)-1], true
}
