package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spec-kit/civic-issue-service/internal/config"
)

// httpProvider talks to the provider's checkout REST API.
type httpProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider builds a Provider from config.
func NewHTTPProvider(cfg config.PaymentConfig) Provider {
	return &httpProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type sessionPayload struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	Status      string            `json:"status"`
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
}

type createSessionPayload struct {
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
	SuccessURL  string            `json:"success_url"`
	CancelURL   string            `json:"cancel_url"`
}

func (p *httpProvider) CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error) {
	body, err := json.Marshal(createSessionPayload{
		AmountCents: input.AmountCents,
		Currency:    input.Currency,
		Description: input.Description,
		Metadata:    input.Metadata,
		SuccessURL:  input.SuccessURL,
		CancelURL:   input.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	return p.do(req)
}

func (p *httpProvider) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	endpoint := p.baseURL + "/v1/checkout/sessions/" + url.PathEscape(sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	return p.do(req)
}

func (p *httpProvider) do(req *http.Request) (*Session, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var payload sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode payment session: %w", err)
	}
	return &Session{
		ID:          payload.ID,
		URL:         payload.URL,
		Status:      payload.Status,
		AmountCents: payload.AmountCents,
		Currency:    payload.Currency,
		Metadata:    payload.Metadata,
	}, nil
}
