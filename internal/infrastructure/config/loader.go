package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/notchd/internal/domain"
	"github.com/doeshing/notchd/internal/pkg/filesystem"
	"github.com/doeshing/notchd/internal/ports"
)

// FileLoader loads YAML configuration from ~/.notchd/config.yaml
// (overridable via NOTCHD_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := writeDefault(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}

	return hydrateDefaults(cfg), nil
}

// Path returns the resolved config file location.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.overridePath
	}
	if custom := os.Getenv("NOTCHD_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".notchd", "config.yaml")
}

func ensureConfigDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, domain.DirectoryPermissions)
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// DefaultConfig is the configuration written on first run.
func DefaultConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Sampling: domain.SamplingSettings{
			CPUInterval:       domain.DefaultSamplingInterval,
			RAMInterval:       domain.DefaultSamplingInterval,
			DiskInterval:      domain.DefaultSamplingInterval,
			GPUInterval:       domain.DefaultSamplingInterval,
			SubprocessTimeout: domain.DefaultSubprocessTimeout,
		},
		Chat: domain.ChatSettings{
			Endpoint:   "https://generativelanguage.googleapis.com",
			AuthEnvVar: "GEMINI_API_KEY",
			Candidates: []string{
				"gemini-2.0-flash",
				"gemini-1.5-flash",
				"gemini-1.5-flash-8b",
			},
			TranscriptLimit: domain.DefaultConversationLimit,
			TimeoutSeconds:  int(domain.DefaultChatTimeout.Seconds()),
		},
		History: domain.HistorySettings{
			SampleDepth: domain.DefaultSampleHistoryDepth,
		},
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	defaults := DefaultConfig()
	if cfg.Chat.Endpoint == "" {
		cfg.Chat.Endpoint = defaults.Chat.Endpoint
	}
	if cfg.Chat.AuthEnvVar == "" {
		cfg.Chat.AuthEnvVar = defaults.Chat.AuthEnvVar
	}
	if len(cfg.Chat.Candidates) == 0 {
		cfg.Chat.Candidates = defaults.Chat.Candidates
	}
	if cfg.Chat.TranscriptLimit == 0 {
		cfg.Chat.TranscriptLimit = defaults.Chat.TranscriptLimit
	}
	if cfg.Chat.TimeoutSeconds == 0 {
		cfg.Chat.TimeoutSeconds = defaults.Chat.TimeoutSeconds
	}
	if cfg.History.SampleDepth == 0 {
		cfg.History.SampleDepth = defaults.History.SampleDepth
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
