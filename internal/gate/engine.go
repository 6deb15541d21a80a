package gate

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"wishwall/internal/config"
	"wishwall/internal/database"
	"wishwall/internal/domain"
)

// Engine is the gating layer every inbound request crosses before its content
// handler runs. Per request it evaluates CHECK_BAN, CHECK_RATE and
// CHECK_ESCALATE in that order and either denies or hands off, appending the
// outcome to the durable request log either way.
type Engine struct {
	cfg    config.Security
	window *RateWindow
	cache  *BanCache

	// banLookup collapses concurrent store lookups for one identity after a
	// cache miss so a burst from a banned caller costs one query, not N.
	banLookup singleflight.Group

	bannedPage string
	syncLogs   bool
}

type Option func(*Engine)

// WithBannedPage points the HTML deny responses at a static page file.
func WithBannedPage(path string) Option {
	return func(e *Engine) {
		e.bannedPage = path
	}
}

// WithSynchronousLogging makes request-log writes block the caller. Test use
// only; production keeps log writes off the response path.
func WithSynchronousLogging() Option {
	return func(e *Engine) {
		e.syncLogs = true
	}
}

func NewEngine(cfg config.Security, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		window: NewRateWindow(cfg.RateLimitWindow),
		cache:  NewBanCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RateWindow exposes the in-memory window for the sweep routine.
func (e *Engine) RateWindow() *RateWindow {
	return e.window
}

// ClientIdentity derives the gating key: the first value of X-Forwarded-For
// when present, otherwise the peer address. Used verbatim, never validated.
func ClientIdentity(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// Middleware wraps the whole content surface. Composed once at route setup so
// the "every request passes through gating" invariant cannot erode per route.
func (e *Engine) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		identity := ClientIdentity(r)

		if e.cfg.IsWhitelisted(identity) {
			e.serve(next, w, r, identity, start)
			return
		}

		// CHECK_BAN
		if reason, expiresAt, permanent, banned := e.checkBan(r.Context(), identity); banned {
			log.Warn("Banned identity rejected", "ip", identity, "endpoint", r.URL.Path, "reason", reason)
			e.logRequest(identity, r, http.StatusForbidden, 0)
			e.denyBanned(w, r, reason, time.Time{}, expiresAt, permanent)
			return
		}

		// CHECK_RATE
		now := time.Now()
		count := e.window.RecordAndCount(identity, now)
		if count <= e.cfg.RateLimitRequests {
			e.serve(next, w, r, identity, start)
			return
		}

		// CHECK_ESCALATE
		log.Warn("Rate limit exceeded", "ip", identity, "count", count, "window", e.cfg.RateLimitWindow)
		if reason, expiresAt, escalated := e.escalate(r.Context(), identity, now); escalated {
			e.logRequest(identity, r, http.StatusForbidden, 0)
			e.denyBanned(w, r, reason, now, expiresAt, false)
			return
		}

		e.logRequest(identity, r, http.StatusTooManyRequests, 0)
		e.denyRateLimited(w, r)
	})
}

// checkBan resolves the identity's ban state, cache first. Store errors fail
// open: a database outage must not lock every caller out.
func (e *Engine) checkBan(ctx context.Context, identity string) (reason string, expiresAt time.Time, permanent bool, banned bool) {
	now := time.Now()
	if entry, ok := e.cache.lookupEntry(identity, now); ok {
		return entry.reason, entry.expiresAt, entry.permanent, true
	}

	result, err, _ := e.banLookup.Do(identity, func() (interface{}, error) {
		return database.FindActiveBan(ctx, identity)
	})
	if err != nil {
		log.Error("Ban lookup failed, failing open", "ip", identity, "error", err)
		return "", time.Time{}, false, false
	}

	ban, _ := result.(*domain.IPBan)
	if ban == nil {
		return "", time.Time{}, false, false
	}

	expiry := ban.ExpiresAt
	if ban.IsPermanent {
		expiry = domain.PermanentBanSentinel
	}
	e.cache.Put(identity, ban.BanReason, expiry, ban.IsPermanent)
	return ban.BanReason, expiry, ban.IsPermanent, true
}

// escalate decides whether a rate-limited identity crosses the ban threshold.
// Store errors degrade to a plain rate-limit rejection.
func (e *Engine) escalate(ctx context.Context, identity string, now time.Time) (reason string, expiresAt time.Time, escalated bool) {
	total, err := database.CountRequestsSince(ctx, identity, WindowStart(now, e.cfg.BanWindow))
	if err != nil {
		log.Error("Ban threshold check failed", "ip", identity, "error", err)
		return "", time.Time{}, false
	}
	if total < int64(e.cfg.BanThreshold) {
		return "", time.Time{}, false
	}

	reason = fmt.Sprintf("sustained traffic: %d requests in %ds", total, e.cfg.BanWindowSeconds)
	expiresAt = now.Add(e.cfg.BanDuration)

	if err := database.UpsertBan(ctx, identity, reason, expiresAt, false); err != nil {
		log.Error("Ban upsert failed", "ip", identity, "error", err)
		return "", time.Time{}, false
	}

	e.cache.Put(identity, reason, expiresAt, false)
	log.Warn("Identity escalated to ban", "ip", identity, "reason", reason, "expires_at", expiresAt)
	return reason, expiresAt, true
}

// serve runs the content handler with a recording writer so the real status
// and latency land in the request log. Handler panics are logged as 500 and
// re-raised to the server's recovery layer.
func (e *Engine) serve(next http.Handler, w http.ResponseWriter, r *http.Request, identity string, start time.Time) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	defer func() {
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0
		if recovered := recover(); recovered != nil {
			e.logRequest(identity, r, http.StatusInternalServerError, elapsed)
			panic(recovered)
		}
		e.logRequest(identity, r, rec.status, elapsed)
	}()

	next.ServeHTTP(rec, r)
}

// logRequest appends the audit row. Fire-and-forget with respect to the
// response; a failed write is logged and swallowed.
func (e *Engine) logRequest(identity string, r *http.Request, status int, durationMs float64) {
	entry := domain.RequestLog{
		IPAddress: identity,
		Endpoint:  r.URL.Path,
		Method:    r.Method,
		UserAgent: r.Header.Get("User-Agent"),
		Status:    status,
		Duration:  durationMs,
	}

	write := func() {
		if err := database.AppendRequestLog(context.Background(), entry); err != nil {
			log.Error("Request log write failed", "ip", identity, "endpoint", entry.Endpoint, "error", err)
		}
	}

	if e.syncLogs {
		write()
		return
	}
	go write()
}

// Ban applies an operator ban directly to the store and cache, bypassing the
// per-request pipeline. A zero duration means the configured default.
func (e *Engine) Ban(ctx context.Context, identity, reason string, duration time.Duration, permanent bool) error {
	if duration <= 0 {
		duration = e.cfg.BanDuration
	}

	expiresAt := time.Now().Add(duration)
	if permanent {
		expiresAt = domain.PermanentBanSentinel
	}

	if err := database.UpsertBan(ctx, identity, reason, expiresAt, permanent); err != nil {
		return err
	}

	e.cache.Put(identity, reason, expiresAt, permanent)
	log.Info("Identity banned", "ip", identity, "reason", reason, "permanent", permanent)
	return nil
}

// Unban removes the ban from the store and invalidates the cache so the
// identity is admitted on its very next request. Idempotent.
func (e *Engine) Unban(ctx context.Context, identity string) error {
	if err := database.DeleteBan(ctx, identity); err != nil {
		return err
	}

	e.cache.Invalidate(identity)
	log.Info("Identity unbanned", "ip", identity)
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}
