package metrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/doeshing/notchd/internal/domain"
	"github.com/doeshing/notchd/internal/ports"
)

const rootVolume = "/"

// DiskSource estimates root-volume usage from the filesystem-usage
// utility's kilobyte-block report, falling back to the filesystem
// attributes system API on parse failure.
type DiskSource struct {
	runner ports.CommandRunner
}

// NewDiskSource builds a disk source backed by the given runner.
func NewDiskSource(runner ports.CommandRunner) *DiskSource {
	return &DiskSource{runner: runner}
}

func (s *DiskSource) Kind() domain.ResourceKind {
	return domain.ResourceDisk
}

// Sample implements ports.MetricSource.
func (s *DiskSource) Sample(ctx context.Context) (float64, error) {
	out, err := s.runner.Run(ctx, "df", "-k", rootVolume)
	if err == nil {
		if usage, perr := parseDiskUsage(string(out)); perr == nil {
			return usage, nil
		}
	}

	stat, err := disk.UsageWithContext(ctx, rootVolume)
	if err != nil {
		return 0, fmt.Errorf("filesystem attributes fallback: %w", err)
	}
	return stat.UsedPercent / 100, nil
}

// parseDiskUsage reads the second line of the df report (the first is the
// header) and computes usedBlocks/totalBlocks from its whitespace-delimited
// fields.
func parseDiskUsage(text string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("disk usage output too short")
	}

	fields := strings.Fields(lines[1])
	if len(fields) < 3 {
		return 0, fmt.Errorf("disk usage line has %d fields", len(fields))
	}

	total, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, fmt.Errorf("parse total blocks: %w", err)
	}
	used, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, fmt.Errorf("parse used blocks: %w", err)
	}
	if total <= 0 {
		return 0, fmt.Errorf("disk reported zero total blocks")
	}
	return domain.Clamp01(used / total), nil
}

var _ ports.MetricSource = (*DiskSource)(nil)
