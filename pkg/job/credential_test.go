package job

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	values map[string]string
}

func (s stubResolver) Resolve(_ context.Context, key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", assert.AnError
	}
	return v, nil
}

func TestResolveCredential(t *testing.T) {
	j := Job{Parameters: []Parameter{
		{ID: "api_key", Type: TypeCredential, Value: rawOf(t, "secret-key-1")},
	}}

	resolver := stubResolver{values: map[string]string{"secret-key-1": "sk-resolved"}}

	value, err := ResolveCredential(context.Background(), j, "api_key", resolver)
	require.NoError(t, err)
	assert.Equal(t, "sk-resolved", value)
}

func TestResolveCredential_MissingParameter(t *testing.T) {
	j := Job{}
	_, err := ResolveCredential(context.Background(), j, "api_key", stubResolver{})
	require.Error(t, err)
	var pErr *ParameterError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, ParameterMissing, pErr.Kind)
}

func TestHTTPCredentialResolver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/my-key", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"value": "resolved-secret"})
	}))
	defer server.Close()

	resolver := NewHTTPCredentialResolver(server.URL, time.Second)
	value, err := resolver.Resolve(context.Background(), "my-key")
	require.NoError(t, err)
	assert.Equal(t, "resolved-secret", value)
}

func TestHTTPCredentialResolver_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	resolver := NewHTTPCredentialResolver(server.URL, time.Second)
	_, err := resolver.Resolve(context.Background(), "missing")
	require.Error(t, err)
}
