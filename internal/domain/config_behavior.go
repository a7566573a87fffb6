package domain

import (
	"fmt"
	"time"
)

// ClampInterval bounds a sampling interval to the supported range, falling
// back to the default when unset.
func ClampInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultSamplingInterval
	}
	if d < MinSamplingInterval {
		return MinSamplingInterval
	}
	if d > MaxSamplingInterval {
		return MaxSamplingInterval
	}
	return d
}

// Interval returns the clamped refresh interval for one resource kind.
func (s SamplingSettings) Interval(kind ResourceKind) time.Duration {
	switch kind {
	case ResourceCPU:
		return ClampInterval(s.CPUInterval)
	case ResourceRAM:
		return ClampInterval(s.RAMInterval)
	case ResourceDisk:
		return ClampInterval(s.DiskInterval)
	case ResourceGPU:
		return ClampInterval(s.GPUInterval)
	default:
		return DefaultSamplingInterval
	}
}

// TickPeriod is the sampler's timer period: the minimum of the four clamped
// per-resource intervals.
func (s SamplingSettings) TickPeriod() time.Duration {
	period := ClampInterval(s.CPUInterval)
	for _, kind := range []ResourceKind{ResourceRAM, ResourceDisk, ResourceGPU} {
		if iv := s.Interval(kind); iv < period {
			period = iv
		}
	}
	return period
}

// Stride returns how many ticks elapse between refreshes of one resource
// kind: its clamped interval divided by the tick period, rounded to the
// nearest whole tick. The kind that sets the tick period has stride 1.
func (s SamplingSettings) Stride(kind ResourceKind) int {
	period := s.TickPeriod()
	stride := int((s.Interval(kind) + period/2) / period)
	if stride < 1 {
		stride = 1
	}
	return stride
}

// Timeout returns the bounded subprocess timeout.
func (s SamplingSettings) Timeout() time.Duration {
	if s.SubprocessTimeout <= 0 {
		return DefaultSubprocessTimeout
	}
	return s.SubprocessTimeout
}

// Validate checks the chat settings needed before any request can be built.
func (c ChatSettings) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("chat endpoint not configured")
	}
	if len(c.Candidates) == 0 {
		return ErrNoSuitableModel
	}
	return nil
}

// Limit returns the bounded transcript suffix length.
func (c ChatSettings) Limit() int {
	if c.TranscriptLimit <= 0 {
		return DefaultConversationLimit
	}
	return c.TranscriptLimit
}

// RequestTimeout returns the per-request HTTP timeout.
func (c ChatSettings) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultChatTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
