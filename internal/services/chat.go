package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/notchd/internal/domain"
	"github.com/doeshing/notchd/internal/ports"
)

// ChatService orchestrates one chat turn end-to-end: compose, build the
// outbound request, dispatch against the ordered model fallback list, and
// interpret the terminal outcome. Only one request chain is in flight at a
// time; fallback probing is strictly sequential so responses stay ordered
// and no candidate is charged twice.
type ChatService struct {
	ConfigProvider ports.ConfigProvider
	Client         ports.ChatClient
	// ClientFor, when set, builds the client from the freshly loaded chat
	// settings each turn, so endpoint and key edits take effect without a
	// restart. Falls back to Client when nil.
	ClientFor  func(domain.ChatSettings) ports.ChatClient
	Transcript ports.TranscriptRepository
	Logger     ports.Logger

	mu      sync.Mutex
	pending bool
	conv    *domain.Conversation
}

// Submit runs one user turn through the full state machine. The returned
// message is the assistant entry appended to the transcript: the model
// reply on success, or an error-flagged message on any terminal failure.
// A submission while a prior chain is pending is rejected without touching
// the transcript.
func (s *ChatService) Submit(ctx context.Context, text string) (domain.ChatMessage, error) {
	if s.ConfigProvider == nil || (s.Client == nil && s.ClientFor == nil) || s.Logger == nil {
		return domain.ChatMessage{}, errors.New("services.ChatService dependencies not satisfied")
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return domain.ChatMessage{}, domain.ErrRequestInFlight
	}
	s.pending = true
	s.mu.Unlock()

	// Every terminal outcome funnels through exactly one exit; this is the
	// only path that clears the pending flag.
	defer func() {
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
	}()

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return s.fail(fmt.Errorf("load config: %w", err), s.lastLimit())
	}
	limit := cfg.Chat.Limit()

	// Validation failures are terminal outcomes like any other: they land
	// in the transcript as error-flagged assistant entries.
	text = strings.TrimSpace(text)
	if text == "" {
		return s.fail(domain.ErrEmptyPrompt, limit)
	}
	if err := cfg.Chat.Validate(); err != nil {
		return s.fail(err, limit)
	}

	client := s.Client
	if s.ClientFor != nil {
		client = s.ClientFor(cfg.Chat)
	}

	s.appendMessage(domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Text:      text,
		Timestamp: time.Now(),
	}, limit)

	s.mu.Lock()
	outbound, err := s.conversation(limit).Outbound()
	s.mu.Unlock()
	if err != nil {
		return s.fail(err, limit)
	}

	reply, err := s.dispatch(ctx, client, cfg.Chat.Candidates, outbound)
	if err != nil {
		return s.fail(err, limit)
	}

	msg := domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Text:      reply,
		Timestamp: time.Now(),
	}
	s.appendMessage(msg, limit)
	return msg, nil
}

// dispatch walks the immutable candidate list with an explicit index,
// advancing only on model-unavailable rejections. Exhaustion is its own
// terminal failure.
func (s *ChatService) dispatch(ctx context.Context, client ports.ChatClient, candidates []string, outbound []domain.ChatMessage) (string, error) {
	for i, candidate := range candidates {
		s.Logger.Info("calling model", map[string]interface{}{
			"model":   candidate,
			"attempt": i + 1,
		})

		reply, err := client.Generate(ctx, candidate, outbound)
		if err == nil {
			return reply, nil
		}
		if domain.IsModelUnavailable(err) {
			s.Logger.Warn("model unavailable, trying next candidate", map[string]interface{}{
				"model": candidate,
				"error": err.Error(),
			})
			continue
		}
		return "", err
	}
	return "", domain.ErrNoSuitableModel
}

// fail synthesizes the error-flagged assistant message so the failure stays
// visible in the transcript, and returns the underlying error to the caller.
func (s *ChatService) fail(err error, limit int) (domain.ChatMessage, error) {
	msg := domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Text:      err.Error(),
		IsError:   true,
		Timestamp: time.Now(),
	}
	s.appendMessage(msg, limit)
	s.Logger.Error("chat turn failed", err, nil)
	return msg, err
}

// lastLimit returns the transcript bound already in effect, for failures
// that happen before the configured limit is known.
func (s *ChatService) lastLimit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv != nil {
		return s.conv.Limit
	}
	return domain.DefaultConversationLimit
}

func (s *ChatService) appendMessage(msg domain.ChatMessage, limit int) {
	s.mu.Lock()
	s.conversation(limit).Append(msg)
	s.mu.Unlock()

	if s.Transcript != nil {
		// Persistence is best-effort; a store failure never fails the turn.
		if err := s.Transcript.Save(msg); err != nil {
			s.Logger.Warn("transcript save failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// conversation lazily builds the bounded transcript and re-bounds it when
// the configured limit changes. Callers must hold mu or be on the single
// submit path.
func (s *ChatService) conversation(limit int) *domain.Conversation {
	if s.conv == nil {
		s.conv = domain.NewConversation(limit)
	} else if limit > 0 && s.conv.Limit != limit {
		s.conv.Limit = limit
		s.conv.Trim()
	}
	return s.conv
}

// Messages returns a copy of the in-memory transcript, oldest first.
func (s *ChatService) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv == nil {
		return nil
	}
	return s.conv.Messages()
}

// Pending reports whether a request chain is in flight.
func (s *ChatService) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}
