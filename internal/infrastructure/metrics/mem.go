package metrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/doeshing/notchd/internal/domain"
	"github.com/doeshing/notchd/internal/ports"
)

const memoryStatsCommand = "vm_stat"

// MemorySource estimates RAM pressure from the memory-statistics utility's
// page counts, falling back to the virtual-memory system API when the
// utility or its output is unusable.
type MemorySource struct {
	runner ports.CommandRunner
}

// NewMemorySource builds a memory source backed by the given runner.
func NewMemorySource(runner ports.CommandRunner) *MemorySource {
	return &MemorySource{runner: runner}
}

func (s *MemorySource) Kind() domain.ResourceKind {
	return domain.ResourceRAM
}

// Sample implements ports.MetricSource.
func (s *MemorySource) Sample(ctx context.Context) (float64, error) {
	out, err := s.runner.Run(ctx, memoryStatsCommand)
	if err == nil {
		if usage, perr := parseMemoryStats(string(out)); perr == nil {
			return usage, nil
		}
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("virtual memory fallback: %w", err)
	}
	return vm.UsedPercent / 100, nil
}

// parseMemoryStats extracts labeled page counts line by line and computes
// usage = (active+inactive+wired) / (active+inactive+wired+free).
func parseMemoryStats(text string) (float64, error) {
	var free, active, inactive, wired float64
	var haveFree, haveActive, haveInactive, haveWired bool

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Pages free"):
			free, haveFree = parsePageCount(trimmed)
		case strings.HasPrefix(trimmed, "Pages active"):
			active, haveActive = parsePageCount(trimmed)
		case strings.HasPrefix(trimmed, "Pages inactive"):
			inactive, haveInactive = parsePageCount(trimmed)
		case strings.HasPrefix(trimmed, "Pages wired down"):
			wired, haveWired = parsePageCount(trimmed)
		}
	}

	if !haveFree || !haveActive || !haveInactive || !haveWired {
		return 0, fmt.Errorf("memory stats output missing page counts")
	}

	used := active + inactive + wired
	total := used + free
	if total <= 0 {
		return 0, fmt.Errorf("memory stats reported zero pages")
	}
	return domain.Clamp01(used / total), nil
}

// parsePageCount pulls the first colon-delimited numeric field, stripping
// thousands separators and the trailing dot the utility prints.
func parsePageCount(line string) (float64, bool) {
	_, rest, found := strings.Cut(line, ":")
	if !found {
		return 0, false
	}
	field := strings.Fields(rest)
	if len(field) == 0 {
		return 0, false
	}
	cleaned := strings.TrimSuffix(strings.ReplaceAll(field[0], ",", ""), ".")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

var _ ports.MetricSource = (*MemorySource)(nil)
