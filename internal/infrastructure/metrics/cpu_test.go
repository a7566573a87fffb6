package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/doeshing/notchd/internal/domain"
)

func TestCPUSourceFirstSampleUsesAbsoluteCounters(t *testing.T) {
	source := NewCPUSourceWithReader(func(context.Context) (domain.CPUTicks, error) {
		return domain.CPUTicks{User: 300, System: 100, Idle: 600, Nice: 0}, nil
	})

	usage, err := source.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if usage != 0.4 {
		t.Fatalf("first Sample() = %v, want 0.4 from cumulative counters", usage)
	}
}

func TestCPUSourceDeltaBetweenTicks(t *testing.T) {
	snapshots := []domain.CPUTicks{
		{User: 100, System: 100, Idle: 200},
		{User: 150, System: 150, Idle: 300},
	}
	call := 0
	source := NewCPUSourceWithReader(func(context.Context) (domain.CPUTicks, error) {
		t := snapshots[call]
		if call < len(snapshots)-1 {
			call++
		}
		return t, nil
	})

	if _, err := source.Sample(context.Background()); err != nil {
		t.Fatalf("first Sample() error = %v", err)
	}
	usage, err := source.Sample(context.Background())
	if err != nil {
		t.Fatalf("second Sample() error = %v", err)
	}
	if usage != 0.5 {
		t.Fatalf("delta Sample() = %v, want 0.5", usage)
	}
}

func TestCPUSourceHoldsValueOnZeroDelta(t *testing.T) {
	snapshots := []domain.CPUTicks{
		{User: 100, System: 100, Idle: 200},
		{User: 150, System: 150, Idle: 300},
		{User: 150, System: 150, Idle: 300}, // identical snapshot, Δtotal = 0
	}
	call := 0
	source := NewCPUSourceWithReader(func(context.Context) (domain.CPUTicks, error) {
		t := snapshots[call]
		if call < len(snapshots)-1 {
			call++
		}
		return t, nil
	})

	source.Sample(context.Background())
	second, _ := source.Sample(context.Background())
	third, err := source.Sample(context.Background())
	if err != nil {
		t.Fatalf("third Sample() error = %v", err)
	}
	if third != second {
		t.Fatalf("Sample() after zero delta = %v, want held value %v", third, second)
	}
}

func TestCPUSourcePropagatesReadFailure(t *testing.T) {
	source := NewCPUSourceWithReader(func(context.Context) (domain.CPUTicks, error) {
		return domain.CPUTicks{}, errors.New("host statistics unavailable")
	})

	if _, err := source.Sample(context.Background()); err == nil {
		t.Fatal("Sample() error = nil, want read failure so the sampler holds the last value")
	}
}
