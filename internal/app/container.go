package app

import (
	"context"
	"os"

	"github.com/doeshing/notchd/internal/domain"
	"github.com/doeshing/notchd/internal/infrastructure/config"
	"github.com/doeshing/notchd/internal/infrastructure/gemini"
	"github.com/doeshing/notchd/internal/infrastructure/history"
	"github.com/doeshing/notchd/internal/infrastructure/metrics"
	"github.com/doeshing/notchd/internal/pkg/logger"
	"github.com/doeshing/notchd/internal/ports"
	"github.com/doeshing/notchd/internal/services"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Sampler      *services.Sampler
	ChatService  *services.ChatService
	ConfigLoader *config.FileLoader
	Transcript   ports.TranscriptRepository
	Logger       ports.Logger
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(verbose)
	runner := metrics.NewExecRunner()
	sources := []ports.MetricSource{
		metrics.NewCPUSource(),
		metrics.NewMemorySource(runner),
		metrics.NewDiskSource(runner),
		metrics.NewGPUSource(runner),
	}

	// The CLI attaches its own publisher before starting the loop.
	sampler := services.NewSampler(cfg.Sampling, cfg.History.SampleDepth, sources, nil, log)

	transcript := history.NewSQLiteStore()
	chatService := &services.ChatService{
		ConfigProvider: cfgLoader,
		// Built per turn so endpoint/key edits apply to the next request.
		ClientFor: func(chat domain.ChatSettings) ports.ChatClient {
			return gemini.NewClient(chat.Endpoint, os.Getenv(chat.AuthEnvVar), chat.RequestTimeout())
		},
		Transcript: transcript,
		Logger:     log,
	}

	return &Container{
		Sampler:      sampler,
		ChatService:  chatService,
		ConfigLoader: cfgLoader,
		Transcript:   transcript,
		Logger:       log,
	}, nil
}
