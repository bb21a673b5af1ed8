package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/mindchat/mindchat/internal/models"
)

const (
	healthPath = "/api/health"
	chatPath   = "/api/chat"

	// StatusReady is the health status value that permits submissions.
	StatusReady = "ready"

	maxBodyBytes = 1 << 20
)

type HealthStatus struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (h *HealthStatus) Ready() bool {
	return h != nil && h.Status == StatusReady
}

type ChatReply struct {
	Response string
	Crisis   bool
}

type chatPayload struct {
	Response *string `json:"response"`
	Crisis   bool    `json:"crisis"`
	Error    *string `json:"error"`
}

type Options struct {
	BaseURL        string
	HistoryField   string
	RequestTimeout time.Duration
	ProbeTimeout   time.Duration
	HTTPClient     *http.Client
}

// Client speaks the backend's health and chat contract.
type Client struct {
	baseURL      string
	historyField string
	chatHTTP     *http.Client
	healthHTTP   *http.Client
}

func NewClient(opts Options) *Client {
	field := opts.HistoryField
	if field == "" {
		field = "messages"
	}
	chatHTTP := opts.HTTPClient
	healthHTTP := opts.HTTPClient
	if chatHTTP == nil {
		chatHTTP = &http.Client{Timeout: opts.RequestTimeout}
		healthHTTP = &http.Client{Timeout: opts.ProbeTimeout}
	}
	return &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		historyField: field,
		chatHTTP:     chatHTTP,
		healthHTTP:   healthHTTP,
	}
}

// Health performs one readiness check. Any completed response yields a status,
// even an unparsable one; only a failed round trip is an error.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build health request")
	}
	resp, err := c.healthHTTP.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "GET " + healthPath, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: "read " + healthPath, Err: err}
	}

	status := &HealthStatus{}
	if err := json.Unmarshal(body, status); err != nil {
		log.Debug().Err(err).Int("http_status", resp.StatusCode).Msg("Health response is not JSON")
		status = &HealthStatus{Message: statusMessage(resp.StatusCode)}
	}
	status.HTTPStatus = resp.StatusCode
	return status, nil
}

// Chat submits the conversation and interprets the reply.
func (c *Client) Chat(ctx context.Context, turns []models.Turn) (*ChatReply, error) {
	payload := map[string][]openai.ChatCompletionMessage{
		c.historyField: WireMessages(turns),
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(buf))
	if err != nil {
		return nil, errors.Wrap(err, "build chat request")
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Int("messages", len(payload[c.historyField])).Msg("Sending chat request")
	resp, err := c.chatHTTP.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "POST " + chatPath, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: "read " + chatPath, Err: err}
	}

	return decodeChat(resp.StatusCode, body)
}

func decodeChat(code int, body []byte) (*ChatReply, error) {
	if code == http.StatusServiceUnavailable {
		var p chatPayload
		if err := json.Unmarshal(body, &p); err == nil && p.Error != nil && *p.Error != "" {
			return nil, errors.Wrap(ErrNotReady, *p.Error)
		}
		return nil, ErrNotReady
	}

	var p chatPayload
	if err := json.Unmarshal(body, &p); err != nil {
		if code < 200 || code >= 300 {
			return nil, &ApplicationError{Status: code, Message: statusMessage(code)}
		}
		return nil, &ContractError{Status: code, Err: errors.Wrap(err, "decode chat response")}
	}
	if p.Error != nil && *p.Error != "" {
		return nil, &ApplicationError{Status: code, Message: *p.Error}
	}
	if code < 200 || code >= 300 {
		return nil, &ApplicationError{Status: code, Message: statusMessage(code)}
	}
	if p.Response == nil || strings.TrimSpace(*p.Response) == "" {
		return nil, &ContractError{Status: code, Err: errors.New("missing response field")}
	}
	return &ChatReply{Response: *p.Response, Crisis: p.Crisis}, nil
}

// WireMessages converts the conversation into the role/content list the
// backend expects. Client-side notices are not part of the conversation.
func WireMessages(turns []models.Turn) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		if t.Notice {
			continue
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(t.Role),
			Content: t.Content,
		})
	}
	return out
}
