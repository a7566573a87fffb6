package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/doeshing/notchd/internal/domain"
	"github.com/doeshing/notchd/internal/pkg/logger"
	"github.com/doeshing/notchd/internal/ports"
)

func chatConfig() domain.Config {
	return domain.Config{
		Chat: domain.ChatSettings{
			Endpoint:        "https://example.test",
			Candidates:      []string{"model-a", "model-b", "model-c"},
			TranscriptLimit: domain.DefaultConversationLimit,
		},
	}
}

func TestSubmitFallsBackThroughCandidatesInOrder(t *testing.T) {
	client := &scriptedClient{
		errs: []error{
			&domain.ModelUnavailableError{Model: "model-a", Message: "not found"},
			&domain.ModelUnavailableError{Model: "model-b", Message: "unsupported"},
			nil,
		},
		reply: "final answer",
	}
	svc := &ChatService{
		ConfigProvider: stubConfigProvider{cfg: chatConfig()},
		Client:         client,
		Logger:         logger.NewStd(false),
	}

	msg, err := svc.Submit(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if msg.Text != "final answer" || msg.IsError {
		t.Fatalf("Submit() = %+v, want successful reply", msg)
	}

	want := []string{"model-a", "model-b", "model-c"}
	if len(client.models) != len(want) {
		t.Fatalf("issued %d requests, want %d", len(client.models), len(want))
	}
	for i, model := range want {
		if client.models[i] != model {
			t.Fatalf("request %d went to %s, want %s", i, client.models[i], model)
		}
	}
	if svc.Pending() {
		t.Fatal("pending flag still set after success")
	}
}

func TestSubmitExhaustedCandidatesIsTerminal(t *testing.T) {
	client := &scriptedClient{
		errs: []error{
			&domain.ModelUnavailableError{Model: "model-a", Message: "not found"},
			&domain.ModelUnavailableError{Model: "model-b", Message: "call listmodels"},
			&domain.ModelUnavailableError{Model: "model-c", Message: "unavailable for this api version"},
		},
	}
	svc := &ChatService{
		ConfigProvider: stubConfigProvider{cfg: chatConfig()},
		Client:         client,
		Logger:         logger.NewStd(false),
	}

	msg, err := svc.Submit(context.Background(), "hello")
	if !errors.Is(err, domain.ErrNoSuitableModel) {
		t.Fatalf("Submit() error = %v, want ErrNoSuitableModel", err)
	}
	if !msg.IsError || msg.Role != domain.RoleAssistant {
		t.Fatalf("terminal failure message = %+v, want error-flagged assistant entry", msg)
	}

	errorCount := 0
	for _, m := range svc.Messages() {
		if m.IsError {
			errorCount++
		}
	}
	if errorCount != 1 {
		t.Fatalf("transcript has %d error entries, want exactly 1", errorCount)
	}
	if svc.Pending() {
		t.Fatal("pending flag still set after terminal failure")
	}
}

func TestSubmitNonRetryableErrorStopsFallback(t *testing.T) {
	client := &scriptedClient{
		errs: []error{errors.New("chat API error (HTTP 500): internal")},
	}
	svc := &ChatService{
		ConfigProvider: stubConfigProvider{cfg: chatConfig()},
		Client:         client,
		Logger:         logger.NewStd(false),
	}

	msg, err := svc.Submit(context.Background(), "hello")
	if err == nil {
		t.Fatal("Submit() error = nil, want terminal failure")
	}
	if len(client.models) != 1 {
		t.Fatalf("issued %d requests, want 1 (no fallback on non-retryable errors)", len(client.models))
	}
	if !msg.IsError {
		t.Fatalf("failure message = %+v, want error flag", msg)
	}
}

func TestSubmitRejectsConcurrentRequest(t *testing.T) {
	client := &blockingClient{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := &ChatService{
		ConfigProvider: stubConfigProvider{cfg: chatConfig()},
		Client:         client,
		Logger:         logger.NewStd(false),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Submit(context.Background(), "first")
	}()

	<-client.started
	if _, err := svc.Submit(context.Background(), "second"); !errors.Is(err, domain.ErrRequestInFlight) {
		t.Fatalf("concurrent Submit() error = %v, want ErrRequestInFlight", err)
	}

	close(client.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first Submit did not finish")
	}
	if svc.Pending() {
		t.Fatal("pending flag still set after chain terminated")
	}
}

func TestSubmitEmptyPromptSurfacesErrorEntry(t *testing.T) {
	client := &scriptedClient{}
	svc := &ChatService{
		ConfigProvider: stubConfigProvider{cfg: chatConfig()},
		Client:         client,
		Logger:         logger.NewStd(false),
	}

	msg, err := svc.Submit(context.Background(), "   ")
	if !errors.Is(err, domain.ErrEmptyPrompt) {
		t.Fatalf("Submit() error = %v, want ErrEmptyPrompt", err)
	}
	if !msg.IsError || msg.Role != domain.RoleAssistant {
		t.Fatalf("validation failure message = %+v, want error-flagged assistant entry", msg)
	}

	msgs := svc.Messages()
	if len(msgs) != 1 || !msgs[0].IsError {
		t.Fatalf("transcript = %+v, want exactly the error-flagged entry", msgs)
	}
	if len(client.models) != 0 {
		t.Fatal("empty prompt must not issue any request")
	}
	if svc.Pending() {
		t.Fatal("pending flag still set after validation failure")
	}
}

func TestFailureBeforeFirstAppendKeepsConfiguredLimit(t *testing.T) {
	cfg := chatConfig()
	cfg.Chat.TranscriptLimit = 2
	svc := &ChatService{
		ConfigProvider: stubConfigProvider{cfg: cfg},
		Client:         &scriptedClient{reply: "ok"},
		Logger:         logger.NewStd(false),
	}

	// The error entry creates the conversation; it must carry the
	// configured bound, not the built-in default.
	if _, err := svc.Submit(context.Background(), "   "); !errors.Is(err, domain.ErrEmptyPrompt) {
		t.Fatalf("Submit() error = %v, want ErrEmptyPrompt", err)
	}
	for _, prompt := range []string{"first", "second"} {
		if _, err := svc.Submit(context.Background(), prompt); err != nil {
			t.Fatalf("Submit(%q) error = %v", prompt, err)
		}
	}

	if got := len(svc.Messages()); got != 2 {
		t.Fatalf("transcript retains %d messages, want configured bound 2", got)
	}
}

func TestSubmitBuildsClientFromLoadedSettings(t *testing.T) {
	provider := &mutableConfigProvider{cfg: chatConfig()}
	client := &scriptedClient{reply: "ok"}
	var endpoints []string
	svc := &ChatService{
		ConfigProvider: provider,
		ClientFor: func(chat domain.ChatSettings) ports.ChatClient {
			endpoints = append(endpoints, chat.Endpoint)
			return client
		},
		Logger: logger.NewStd(false),
	}

	if _, err := svc.Submit(context.Background(), "one"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	provider.cfg.Chat.Endpoint = "https://relocated.test"
	if _, err := svc.Submit(context.Background(), "two"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := []string{"https://example.test", "https://relocated.test"}
	if len(endpoints) != len(want) {
		t.Fatalf("client built %d times, want %d", len(endpoints), len(want))
	}
	for i, endpoint := range want {
		if endpoints[i] != endpoint {
			t.Fatalf("turn %d used endpoint %s, want %s", i, endpoints[i], endpoint)
		}
	}
}

func TestSubmitEmptyReplyIsTerminal(t *testing.T) {
	client := &scriptedClient{errs: []error{domain.ErrEmptyReply}}
	svc := &ChatService{
		ConfigProvider: stubConfigProvider{cfg: chatConfig()},
		Client:         client,
		Logger:         logger.NewStd(false),
	}

	msg, err := svc.Submit(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmptyReply) {
		t.Fatalf("Submit() error = %v, want ErrEmptyReply", err)
	}
	if !msg.IsError {
		t.Fatalf("failure message = %+v, want error flag", msg)
	}
}

type stubConfigProvider struct {
	cfg domain.Config
	err error
}

func (s stubConfigProvider) Load(context.Context) (domain.Config, error) {
	return s.cfg, s.err
}

// mutableConfigProvider serves whatever cfg currently holds, standing in for
// a config file edited between turns.
type mutableConfigProvider struct {
	cfg domain.Config
}

func (p *mutableConfigProvider) Load(context.Context) (domain.Config, error) {
	return p.cfg, nil
}

// scriptedClient replays one scripted error per call; a nil entry (or
// running past the script) succeeds with reply.
type scriptedClient struct {
	errs   []error
	reply  string
	models []string
}

func (c *scriptedClient) Generate(_ context.Context, model string, _ []domain.ChatMessage) (string, error) {
	call := len(c.models)
	c.models = append(c.models, model)
	if call < len(c.errs) && c.errs[call] != nil {
		return "", c.errs[call]
	}
	return c.reply, nil
}

type blockingClient struct {
	started chan struct{}
	release chan struct{}
}

func (c *blockingClient) Generate(context.Context, string, []domain.ChatMessage) (string, error) {
	close(c.started)
	<-c.release
	return "late reply", nil
}
