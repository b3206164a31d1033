package status

import (
	"context"
	"net/http"
	"time"
)

// URLProber checks whether a session's URL is currently reachable. The
// production implementation is ProbeURLReachable; tests inject a fake.
type URLProber func(ctx context.Context, url string) bool

// defaultHTTPClient is scoped to the single-attempt 1-second timeout; the
// retry loop in ProbeURLReachable owns the overall 5-second budget.
var defaultHTTPClient = &http.Client{Timeout: 1 * time.Second}

// ProbeURLReachable GETs the URL with a 1-second timeout,
// retrying once per second up to 5 seconds total; responsive iff any
// response has status in [200, 400). A failure to reach the URL never marks
// the session Failed on its own; the caller (overall-status step 4) simply
// keeps the session in Starting until it responds.
func ProbeURLReachable(ctx context.Context, url string) bool {
	deadline := time.Now().Add(5 * time.Second)
	for {
		reqCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
		ok := probeOnce(reqCtx, url)
		cancel()
		if ok {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(1 * time.Second):
		}
	}
}

func probeOnce(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := defaultHTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400
}
