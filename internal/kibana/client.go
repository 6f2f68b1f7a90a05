package kibana

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vectorpilot87/elastic-agent-builder-openclaw-skill/config"
)

const (
	agentsPath   = "/api/agent_builder/agents"
	conversePath = "/api/agent_builder/converse"

	// Listing agents is cheap; only converse turns get the configured
	// long timeout.
	listTimeout = 60 * time.Second
)

// StatusError is returned for any non-2xx response. It keeps the response
// body so callers can surface the service's own diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("kibana API error (status %d): %s", e.StatusCode, e.Body)
}

// ConverseRequest is one conversational turn. Optional fields are omitted
// from the wire payload entirely when unset.
type ConverseRequest struct {
	Input                  string         `json:"input"`
	AgentID                string         `json:"agent_id"`
	ConversationID         string         `json:"conversation_id,omitempty"`
	ConnectorID            string         `json:"connector_id,omitempty"`
	ConfigurationOverrides map[string]any `json:"configuration_overrides,omitempty"`
	Prompts                map[string]any `json:"prompts,omitempty"`
}

// Client talks to the Kibana Agent Builder API. When a space id is
// configured every endpoint path is prefixed with /s/{space}.
type Client struct {
	baseURL    string
	basePath   string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	basePath := ""
	if cfg.SpaceID != "" {
		basePath = "/s/" + cfg.SpaceID
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		basePath: basePath,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.TimeoutS) * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + c.basePath + path
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (any, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("kbn-xsrf", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var decoded any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return decoded, nil
}

// ListAgents fetches the configured agents and flattens the payload into a
// list regardless of which of the known response shapes the service used.
func (c *Client) ListAgents(ctx context.Context) ([]any, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	c.logger.Debug().Str("path", agentsPath).Msg("listing agents")

	data, err := c.do(ctx, http.MethodGet, agentsPath, nil)
	if err != nil {
		return nil, err
	}
	return normalizeAgentList(data), nil
}

func normalizeAgentList(data any) []any {
	switch v := data.(type) {
	case map[string]any:
		if list, ok := v["results"].([]any); ok {
			return list
		}
		if list, ok := v["agents"].([]any); ok {
			return list
		}
		return []any{v}
	case []any:
		return v
	}
	return []any{}
}

// Converse submits one turn and returns the decoded payload as-is. The
// response schema is not pinned down by the service, so no struct mapping
// is attempted here.
func (c *Client) Converse(ctx context.Context, req ConverseRequest) (any, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	c.logger.Debug().
		Str("agent_id", req.AgentID).
		Bool("continuing", req.ConversationID != "").
		Msg("sending converse request")

	return c.do(ctx, http.MethodPost, conversePath, bytes.NewReader(payload))
}
