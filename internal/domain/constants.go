package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Sampling constants
const (
	// MinSamplingInterval is the lower clamp bound for per-resource intervals
	MinSamplingInterval = 1 * time.Second
	// MaxSamplingInterval is the upper clamp bound for per-resource intervals
	MaxSamplingInterval = 10 * time.Minute
	// DefaultSamplingInterval is used when an interval is unset
	DefaultSamplingInterval = 2 * time.Second
	// DefaultSubprocessTimeout force-terminates metric subprocesses
	DefaultSubprocessTimeout = 60 * time.Second
	// DefaultSampleHistoryDepth bounds the in-memory sample ring
	DefaultSampleHistoryDepth = 60
)

// GPU heuristic constants. There is no direct GPU counter source; the
// estimate derives from compositor/kernel-task CPU share and is an
// approximation, not a measurement.
const (
	// GPUUsagePlaceholder is emitted when the heuristic fails entirely
	GPUUsagePlaceholder = 0.15
	// GPUCPURangeMax is the CPU percentage mapped to a full gauge
	GPUCPURangeMax = 30.0
)

// Chat constants
const (
	// DefaultConversationLimit is the retained transcript suffix length
	DefaultConversationLimit = 14
	// DefaultChatTimeout bounds one generateContent request
	DefaultChatTimeout = 60 * time.Second
	// DefaultTranscriptDisplayLimit is how many rows `notchd chat` shows
	DefaultTranscriptDisplayLimit = 20
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
