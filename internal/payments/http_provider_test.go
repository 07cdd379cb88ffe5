package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/config"
)

func TestCreateSessionPostsPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody createSessionPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(sessionPayload{
			ID:          "sess-1",
			URL:         "https://pay.example.com/sess-1",
			Status:      SessionStatusOpen,
			AmountCents: gotBody.AmountCents,
			Currency:    gotBody.Currency,
			Metadata:    gotBody.Metadata,
		})
	}))
	defer server.Close()

	provider := NewHTTPProvider(config.PaymentConfig{BaseURL: server.URL, APIKey: "key-123"})
	session, err := provider.CreateSession(context.Background(), CreateSessionInput{
		AmountCents: 10000,
		Currency:    "BDT",
		Description: "Boost",
		Metadata:    map[string]string{MetadataIssueID: "issue-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/checkout/sessions", gotPath)
	assert.Equal(t, "Bearer key-123", gotAuth)
	assert.Equal(t, int64(10000), gotBody.AmountCents)
	assert.Equal(t, "sess-1", session.ID)
	assert.Equal(t, SessionStatusOpen, session.Status)
	assert.Equal(t, "issue-1", session.Metadata[MetadataIssueID])
}

func TestGetSessionEscapesID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions/sess-2", r.URL.Path)
		_ = json.NewEncoder(w).Encode(sessionPayload{ID: "sess-2", Status: SessionStatusComplete})
	}))
	defer server.Close()

	provider := NewHTTPProvider(config.PaymentConfig{BaseURL: server.URL})
	session, err := provider.GetSession(context.Background(), "sess-2")
	require.NoError(t, err)
	assert.Equal(t, SessionStatusComplete, session.Status)
}

func TestProviderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	provider := NewHTTPProvider(config.PaymentConfig{BaseURL: server.URL})
	_, err := provider.GetSession(context.Background(), "sess-3")
	assert.Error(t, err)
}
