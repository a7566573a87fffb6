package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/doeshing/notchd/internal/domain"
	"github.com/doeshing/notchd/internal/ports"
)

// GaugeWriter renders each published sample as one gauge line. It is the
// CLI's stand-in for the panel's observable state object.
type GaugeWriter struct {
	out io.Writer
}

// NewGaugeWriter builds a publisher that writes to out.
func NewGaugeWriter(out io.Writer) *GaugeWriter {
	return &GaugeWriter{out: out}
}

// Publish implements ports.SamplePublisher.
func (w *GaugeWriter) Publish(sample domain.MetricSample) {
	renderSample(w.out, sample)
}

func renderSample(out io.Writer, sample domain.MetricSample) {
	fmt.Fprintf(out, "%s  cpu %5.1f%%  ram %5.1f%%  disk %5.1f%%  gpu~ %5.1f%%\n",
		sample.Timestamp.Format("15:04:05"),
		sample.CPU*100,
		sample.RAM*100,
		sample.Disk*100,
		sample.GPU*100,
	)
}

// renderCapacityDetail adds absolute capacity context to the fractions.
func renderCapacityDetail(out io.Writer) {
	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(out, "memory: %s used of %s\n", humanize.IBytes(vm.Used), humanize.IBytes(vm.Total))
	}
	if usage, err := disk.Usage("/"); err == nil {
		fmt.Fprintf(out, "disk:   %s used of %s\n", humanize.IBytes(usage.Used), humanize.IBytes(usage.Total))
	}
}

var _ ports.SamplePublisher = (*GaugeWriter)(nil)
