package content

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/glasswing/content-cache/pkg/utils"
)

// HTTPMediaFetcher downloads media bytes with a plain timeout-bounded client.
// Retrying is deliberately left to the next refresh of the owning entity,
// which keeps pressure off rate-limited hosts.
type HTTPMediaFetcher struct {
	client *http.Client
}

func NewHTTPMediaFetcher(timeout time.Duration) *HTTPMediaFetcher {
	return &HTTPMediaFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPMediaFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("media host responded %d for %s", resp.StatusCode, url)
	}

	contentType := resp.Header.Get("Content-Type")
	// Expired provider links answer 200 with an HTML error page.
	if strings.HasPrefix(contentType, "text/html") {
		return nil, "", fmt.Errorf("unexpected content type %q for %s", contentType, url)
	}

	body, err := utils.ReadResponseBody(resp)
	if err != nil {
		return nil, "", err
	}
	if len(body) == 0 {
		return nil, "", fmt.Errorf("empty body for %s", url)
	}

	return body, contentType, nil
}
