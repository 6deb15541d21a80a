package gate

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// wantsJSON mirrors the API/page split: anything under /api/ or asking for
// JSON gets a structured body, everything else gets the banned page.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeDenyJSON(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (e *Engine) denyBanned(w http.ResponseWriter, r *http.Request, reason string, bannedAt, expiresAt time.Time, permanent bool) {
	if wantsJSON(r) {
		writeDenyJSON(w, http.StatusForbidden, map[string]any{
			"error":   "access denied",
			"message": "your address is banned",
			"reason":  reason,
		})
		return
	}

	params := url.Values{}
	params.Set("reason", reason)
	if !bannedAt.IsZero() {
		params.Set("ban_time", bannedAt.Format(time.RFC3339))
	}
	if !permanent && !expiresAt.IsZero() {
		params.Set("unban_time", expiresAt.Format(time.RFC3339))
		if remaining := int(time.Until(expiresAt).Seconds()); remaining > 0 {
			params.Set("remaining", fmt.Sprintf("%d", remaining))
		}
	}

	e.writeBannedPage(w, http.StatusForbidden, reason, params)
}

func (e *Engine) denyRateLimited(w http.ResponseWriter, r *http.Request) {
	retryAfter := e.cfg.RateLimitWindowSeconds
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

	if wantsJSON(r) {
		writeDenyJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":       "too many requests",
			"message":     "slow down and retry shortly",
			"retry_after": retryAfter,
		})
		return
	}

	params := url.Values{}
	params.Set("reason", "too many requests")
	params.Set("remaining", fmt.Sprintf("%d", retryAfter))

	e.writeBannedPage(w, http.StatusTooManyRequests, "too many requests", params)
}

// writeBannedPage serves the static banned page with the deny parameters
// injected for the client-side countdown, falling back to a minimal inline
// page when the file is unavailable.
func (e *Engine) writeBannedPage(w http.ResponseWriter, status int, reason string, params url.Values) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if e.bannedPage != "" {
		if page, err := os.ReadFile(e.bannedPage); err == nil {
			body := strings.ReplaceAll(string(page),
				"window.location.search",
				fmt.Sprintf("'?%s' || window.location.search", params.Encode()))
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
			return
		}
	}

	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>Access restricted</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
<h1>Access restricted</h1>
<p>%s</p>
<p>Please try again later.</p>
</body></html>`, html.EscapeString(reason))
}
