package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestClientMethods(t *testing.T) {
	var gotMethod, gotPath, gotBody, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.RequestURI()
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload{Name: "ok", Count: 2})
	}))
	defer server.Close()

	client := New(server.URL+"/api/", nil)
	ctx := context.Background()

	var out payload
	require.NoError(t, client.Get(ctx, "/chat/history/w1?limit=50", &out))
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "/api/chat/history/w1?limit=50", gotPath)
	assert.Equal(t, "ok", out.Name)
	assert.Empty(t, gotBody)

	require.NoError(t, client.Post(ctx, "/chat/message", payload{Name: "hi", Count: 1}, &out))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"name":"hi","count":1}`, gotBody)

	require.NoError(t, client.Patch(ctx, "/wallet/transaction/sig", map[string]string{"status": "confirmed"}, nil))
	assert.Equal(t, http.MethodPatch, gotMethod)

	require.NoError(t, client.Delete(ctx, "/chat/history/w1", nil))
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"detail string", http.StatusNotFound, `{"detail":"Token not found"}`, "Token not found"},
		{"error envelope", http.StatusUnauthorized, `{"error":{"code":"INVALID_API_KEY","message":"Invalid API key"}}`, "Invalid API key"},
		{"plain text", http.StatusInternalServerError, `oops`, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := New(server.URL, nil).Get(context.Background(), "/x", nil)
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.status == http.StatusNotFound, IsNotFound(err))
		})
	}
}

func TestClientMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer server.Close()

	var out payload
	err := New(server.URL, nil).Get(context.Background(), "/x", &out)
	assert.ErrorContains(t, err, "decode response")
}

func TestClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := New(url, nil).Get(context.Background(), "/x", nil)
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, IsNotFound(err))
	assert.False(t, errors.As(err, &apiErr))
}

func TestClientWithAPIKey(t *testing.T) {
	var auth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
	}))
	defer server.Close()

	base := New(server.URL, nil)
	admin := base.WithAPIKey("secret")

	require.NoError(t, admin.Get(context.Background(), "/x", nil))
	require.NoError(t, base.Get(context.Background(), "/x", nil))
	assert.Equal(t, []string{"Bearer secret", ""}, auth)
}
