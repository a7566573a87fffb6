// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). Following the Ports and Adapters
// pattern, these interfaces keep the sampler and chat orchestrator
// independent of OS utilities, HTTP clients, and storage engines, so tests
// can substitute canned sources for all of them.
package ports

import (
	"context"

	"github.com/doeshing/notchd/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.notchd/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// MetricSource estimates the utilization fraction for one resource kind.
// Sample returns a value in [0,1]; on error the sampler holds the last
// published value for that resource.
type MetricSource interface {
	Kind() domain.ResourceKind
	Sample(context.Context) (float64, error)
}

// CommandRunner executes an OS utility and returns its stdout. The context
// carries the deadline that force-terminates the subprocess.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// SamplePublisher receives one completed MetricSample per sampling tick.
// Publication happens only after all four sub-samples finish; implementations
// hand the value off to whatever owns presentation state.
type SamplePublisher interface {
	Publish(domain.MetricSample)
}

// ChatClient sends one conversation to one model candidate and returns the
// joined reply text. A *domain.ModelUnavailableError return means the
// orchestrator should advance to the next fallback candidate.
type ChatClient interface {
	Generate(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// TranscriptRepository persists chat transcript entries.
type TranscriptRepository interface {
	Save(domain.ChatMessage) error
	Recent(limit int) ([]domain.ChatMessage, error)
	Clear() error
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
