// Package resolver is the HTTP adapter for the intent resolution
// service, which turns free text into a structured cart action.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/foodiebot/orderchat/internal/domain"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, client *http.Client) *Client {
	return &Client{
		baseURL: baseURL,
		client:  client,
	}
}

type resolveRequest struct {
	Message string `json:"message"`
}

// resolveResponse keeps the action as a raw string so unknown values can
// be mapped to the none action instead of failing the decode.
type resolveResponse struct {
	Action      string                `json:"action"`
	Message     string                `json:"message"`
	Items       []domain.ResolvedItem `json:"items"`
	Suggestions []domain.Suggestion   `json:"suggestions"`
}

func (c *Client) Resolve(ctx context.Context, message string) (*domain.Resolution, error) {
	data, err := json.Marshal(resolveRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("marshal resolve request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/resolve", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create resolve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call resolver: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver returned status %d", resp.StatusCode)
	}

	var body resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode resolver response: %w", err)
	}

	return &domain.Resolution{
		Action:      domain.ParseActionKind(body.Action),
		Message:     body.Message,
		Items:       body.Items,
		Suggestions: body.Suggestions,
	}, nil
}
