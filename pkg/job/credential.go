package job

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// CredentialResolver exchanges a credential parameter's opaque key for its
// resolved secret value. The concrete resolution mechanism (a secret store,
// an in-process HTTP service, ...) is an external collaborator.
type CredentialResolver interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// ResolveCredential reads the TypeCredential parameter id from c (its
// effective value is the unresolved key) and resolves it through resolver.
func ResolveCredential(ctx context.Context, c ParametersContainer, id string, resolver CredentialResolver) (string, error) {
	key, err := GetParameter[string](c, id)
	if err != nil {
		return "", err
	}
	value, err := resolver.Resolve(ctx, key)
	if err != nil {
		return "", &ParameterError{ID: id, Kind: ParameterDecodeFailed, Err: err}
	}
	return value, nil
}

// HTTPCredentialResolver resolves credential keys against a simple HTTP
// service: GET {baseURL}/{key} and decode a {"value": "..."} body.
type HTTPCredentialResolver struct {
	baseURL string
	client  *http.Client
}

// NewHTTPCredentialResolver builds an HTTPCredentialResolver against the
// given base URL, using timeout as the per-request deadline.
func NewHTTPCredentialResolver(baseURL string, timeout time.Duration) *HTTPCredentialResolver {
	return &HTTPCredentialResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type credentialResponse struct {
	Value string `json:"value"`
}

// Resolve implements CredentialResolver.
func (r *HTTPCredentialResolver) Resolve(ctx context.Context, key string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s", r.baseURL, url.PathEscape(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building credential request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching credential %q: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("credential service returned status %d for %q", resp.StatusCode, key)
	}

	var decoded credentialResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding credential response for %q: %w", key, err)
	}
	return decoded.Value, nil
}
