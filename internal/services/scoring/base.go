package scoring

import (
    "context"
    "fmt"
    "time"

    "AlphaPull/pkg/config"
    xhttp "AlphaPull/pkg/http"
)

// HTTPServiceBase provides a DRY foundation for scoring HTTP clients.
// It centralizes client construction and JSON request handling.
type HTTPServiceBase struct {
    baseURL string
    client  *xhttp.Client
}

// NewHTTPServiceBase builds an HTTP client with timeout and base URL from config.
func NewHTTPServiceBase(cfg *config.Config) *HTTPServiceBase {
    timeout := cfg.Scoring.Timeout
    if timeout <= 0 {
        timeout = 3 * time.Second
    }
    return &HTTPServiceBase{
        baseURL: cfg.Scoring.ServiceURL,
        client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
    }
}

// PostJSON posts the given payload to `path` under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
    if b.client == nil || b.baseURL == "" {
        return fmt.Errorf("scoring http client not initialized")
    }
    err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
        Method: xhttp.MethodPost,
        URL:    b.baseURL + path,
        Headers: map[string]string{
            "Content-Type": "application/json",
        },
        Body: payload,
    }, dest)
    if err != nil {
        return fmt.Errorf("post %s: %w", path, err)
    }
    return nil
}

// GetJSON sends a GET to `path` under baseURL with query params and decodes JSON into dest.
func (b *HTTPServiceBase) GetJSON(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
    if b.client == nil || b.baseURL == "" {
        return fmt.Errorf("scoring http client not initialized")
    }
    err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
        Method:      xhttp.MethodGet,
        URL:         b.baseURL + path,
        QueryParams: query,
    }, dest)
    if err != nil {
        return fmt.Errorf("get %s: %w", path, err)
    }
    return nil
}

// PostJSONWithRetry posts JSON with up to `attempts` retries for transient errors.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}, attempts int) error {
    if attempts <= 1 {
        return b.PostJSON(ctx, path, payload, dest)
    }
    var err error
    for i := 1; i <= attempts; i++ {
        err = b.PostJSON(ctx, path, payload, dest)
        if err == nil {
            return nil
        }
        // simple backoff
        select {
        case <-time.After(time.Duration(i) * 50 * time.Millisecond):
        case <-ctx.Done():
            return ctx.Err()
        }
    }
    return err
}
