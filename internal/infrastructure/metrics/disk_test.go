package metrics

import (
	"context"
	"math"
	"testing"
)

const diskUsageFixture = `Filesystem    1024-blocks      Used Available Capacity iused      ifree %iused  Mounted on
/dev/disk3s5    488245288 366183966 117061322    76% 1255130 4880678750    0%   /
`

func TestParseDiskUsage(t *testing.T) {
	usage, err := parseDiskUsage(diskUsageFixture)
	if err != nil {
		t.Fatalf("parseDiskUsage() error = %v", err)
	}
	want := 366183966.0 / 488245288.0
	if math.Abs(usage-want) > 1e-12 {
		t.Fatalf("parseDiskUsage() = %v, want usedBlocks/totalBlocks = %v", usage, want)
	}
}

func TestParseDiskUsageRejectsBadOutput(t *testing.T) {
	cases := []string{
		"",
		"Filesystem 1024-blocks Used\n",
		"header\n/dev/disk1 abc def\n",
		"header\n/dev/disk1 0 0\n",
	}
	for _, text := range cases {
		if _, err := parseDiskUsage(text); err == nil {
			t.Fatalf("parseDiskUsage(%q) accepted bad output", text)
		}
	}
}

func TestDiskSourceParsesUtilityOutput(t *testing.T) {
	runner := &fakeRunner{output: map[string][]byte{
		"df": []byte(diskUsageFixture),
	}}
	source := NewDiskSource(runner)

	usage, err := source.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if usage <= 0 || usage >= 1 {
		t.Fatalf("Sample() = %v, want fraction in (0,1)", usage)
	}
}
