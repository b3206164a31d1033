// Package culling hibernates and deletes sessions on policy: three
// independent periodic tasks per parent (idle, hibernated-age,
// pending/failed) plus an optional resource-usage reporter, scheduled with
// robfig/cron/v3.
package culling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// ActivitySnapshot is the parsed body of the session's own activity
// endpoint.
type ActivitySnapshot struct {
	Connections  int
	Kernels      int
	LastActivity time.Time
	Started      time.Time
}

type activityPayload struct {
	Connections  int    `json:"connections"`
	Kernels      int    `json:"kernels"`
	LastActivity string `json:"last_activity"`
	Started      string `json:"started"`
}

// ActivityProber fetches the activity snapshot; swapped out in tests.
type ActivityProber func(ctx context.Context, fullURL, token string) (*ActivitySnapshot, bool)

var activityHTTPClient = &http.Client{Timeout: 5 * time.Second}

// ProbeActivity GETs "<full_url>/api/status?token=<token>". Any non-2xx
// response, transport
// error, or malformed body is *unknown* (ok=false); the caller must skip
// the tick rather than treat the session as idle.
func ProbeActivity(ctx context.Context, fullURL, token string) (*ActivitySnapshot, bool) {
	if fullURL == "" {
		return nil, false
	}
	u, err := url.Parse(fullURL + "/api/status")
	if err != nil {
		return nil, false
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, false
	}
	resp, err := activityHTTPClient.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false
	}

	var payload activityPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false
	}

	lastActivity, ok := parseISO8601(payload.LastActivity)
	if !ok {
		return nil, false
	}
	started, ok := parseISO8601(payload.Started)
	if !ok {
		return nil, false
	}

	return &ActivitySnapshot{
		Connections:  payload.Connections,
		Kernels:      payload.Kernels,
		LastActivity: lastActivity,
		Started:      started,
	}, true
}

// parseISO8601 accepts Z-suffixed and offset forms, with or without
// fractional seconds.
func parseISO8601(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
