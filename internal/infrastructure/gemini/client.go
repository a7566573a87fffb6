// Package gemini implements the chat client port against the
// generativelanguage-style generateContent API.
//
// One request/response cycle: the bounded conversation is serialized to the
// {contents:[{role,parts:[{text}]}]} schema, POSTed to
// /v1beta/models/{model}:generateContent with the API key in a header, and
// the first candidate's text parts are joined into the reply. Structured
// error bodies whose message indicates the model or API version is
// unsupported surface as domain.ModelUnavailableError so the orchestrator
// can advance to the next fallback candidate.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/doeshing/notchd/internal/domain"
	"github.com/doeshing/notchd/internal/ports"
)

const apiKeyHeader = "x-goog-api-key"

// modelUnavailableKeywords classify provider errors that justify advancing
// to the next candidate rather than failing the turn.
var modelUnavailableKeywords = []string{
	"not found",
	"unsupported",
	"call listmodels",
	"unavailable for this api version",
}

// Client talks to one generateContent-compatible endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a chat client. The key travels only in a request header,
// never in the body or URL.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = domain.DefaultChatTimeout
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Wire schema types.

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate implements ports.ChatClient.
func (c *Client) Generate(ctx context.Context, model string, messages []domain.ChatMessage) (string, error) {
	if c.apiKey == "" {
		return "", domain.ErrMissingAPIKey
	}

	body, err := json.Marshal(buildRequest(messages))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", c.classifyError(model, resp.StatusCode, raw)
	}

	reply, err := parseReply(raw)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// buildRequest maps transcript roles onto the wire schema, where the
// assistant side is named "model".
func buildRequest(messages []domain.ChatMessage) generateRequest {
	req := generateRequest{Contents: make([]content, 0, len(messages))}
	for _, msg := range messages {
		role := "user"
		if msg.Role == domain.RoleAssistant {
			role = "model"
		}
		req.Contents = append(req.Contents, content{
			Role:  role,
			Parts: []part{{Text: msg.Text}},
		})
	}
	return req
}

// parseReply joins the first candidate's non-empty text parts with newlines.
// An empty joined reply is itself a terminal failure.
func parseReply(raw []byte) (string, error) {
	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", domain.ErrEmptyReply
	}

	var texts []string
	for _, p := range parsed.Candidates[0].Content.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	reply := strings.TrimSpace(strings.Join(texts, "\n"))
	if reply == "" {
		return "", domain.ErrEmptyReply
	}
	return reply, nil
}

// classifyError extracts the structured error message and decides whether
// the failure should advance the fallback list.
func (c *Client) classifyError(model string, status int, raw []byte) error {
	message := fmt.Sprintf("HTTP %d", status)
	var parsed errorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}

	if isModelUnavailableMessage(message) {
		return &domain.ModelUnavailableError{Model: model, Message: message}
	}
	return fmt.Errorf("chat API error (HTTP %d): %s", status, message)
}

func isModelUnavailableMessage(message string) bool {
	lowered := strings.ToLower(message)
	for _, keyword := range modelUnavailableKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

var _ ports.ChatClient = (*Client)(nil)
