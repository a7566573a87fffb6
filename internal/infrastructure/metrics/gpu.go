package metrics

import (
	"context"
	"strconv"
	"strings"

	"github.com/doeshing/notchd/internal/domain"
	"github.com/doeshing/notchd/internal/ports"
)

// gpuProxyProcesses are the GPU-adjacent processes whose CPU share stands
// in for GPU load: the display compositor and the kernel task.
var gpuProxyProcesses = []string{"WindowServer", "kernel_task"}

// GPUSource estimates GPU load without a real GPU counter: it averages the
// CPU percentage of the proxy processes and linearly remaps the 0-30% range
// onto a 0-1 gauge. This is a heuristic approximation, not a measurement.
// Total failure emits the constant placeholder instead of an error.
type GPUSource struct {
	runner ports.CommandRunner
}

// NewGPUSource builds a GPU source backed by the given runner.
func NewGPUSource(runner ports.CommandRunner) *GPUSource {
	return &GPUSource{runner: runner}
}

func (s *GPUSource) Kind() domain.ResourceKind {
	return domain.ResourceGPU
}

// Sample implements ports.MetricSource.
func (s *GPUSource) Sample(ctx context.Context) (float64, error) {
	out, err := s.runner.Run(ctx, "ps", "-axo", "pcpu=,comm=")
	if err != nil {
		return domain.GPUUsagePlaceholder, nil
	}

	usage, ok := parseGPUProxy(string(out))
	if !ok {
		return domain.GPUUsagePlaceholder, nil
	}
	return usage, nil
}

// parseGPUProxy averages the CPU percentage of the proxy processes found in
// the process listing and remaps it onto the gauge range.
func parseGPUProxy(text string) (float64, bool) {
	var sum float64
	var matched int

	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		command := fields[len(fields)-1]
		if !isGPUProxy(command) {
			continue
		}
		pcpu, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		sum += pcpu
		matched++
	}

	if matched == 0 {
		return 0, false
	}
	average := sum / float64(matched)
	return domain.Clamp01(average / domain.GPUCPURangeMax), true
}

func isGPUProxy(command string) bool {
	for _, name := range gpuProxyProcesses {
		if strings.HasSuffix(command, name) {
			return true
		}
	}
	return false
}

var _ ports.MetricSource = (*GPUSource)(nil)
