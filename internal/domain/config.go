package domain

import "time"

// Config mirrors ~/.notchd/config.yaml.
type Config struct {
	ConfigFormatVersion string           `yaml:"config_format_version"`
	Sampling            SamplingSettings `yaml:"sampling"`
	Chat                ChatSettings     `yaml:"chat"`
	History             HistorySettings  `yaml:"history"`
}

// SamplingSettings controls the metrics sampler cadence. Each per-resource
// interval is clamped to [MinSamplingInterval, MaxSamplingInterval] before
// use; the sampler ticks at the minimum of the four clamped intervals.
type SamplingSettings struct {
	CPUInterval       time.Duration `yaml:"cpu_interval"`
	RAMInterval       time.Duration `yaml:"ram_interval"`
	DiskInterval      time.Duration `yaml:"disk_interval"`
	GPUInterval       time.Duration `yaml:"gpu_interval"`
	SubprocessTimeout time.Duration `yaml:"subprocess_timeout"`
}

// ChatSettings configures the chat request orchestrator.
type ChatSettings struct {
	// Endpoint is the API base, e.g. "https://generativelanguage.googleapis.com".
	Endpoint string `yaml:"endpoint"`
	// AuthEnvVar names the environment variable holding the API key. The key
	// travels only in a request header, never in the body or URL.
	AuthEnvVar string `yaml:"auth_env_var"`
	// Candidates is the ordered model fallback list tried strictly in order.
	Candidates []string `yaml:"candidates"`
	// TranscriptLimit bounds the retained conversation suffix.
	TranscriptLimit int `yaml:"transcript_limit"`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `yaml:"timeout"`
}

// HistorySettings configures local retention.
type HistorySettings struct {
	// SampleDepth bounds the in-memory metric sample ring.
	SampleDepth int `yaml:"sample_depth"`
}
