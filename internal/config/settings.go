package config

import (
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"wishwall/internal/support"
)

// Security holds the request-gating knobs. Loaded once at startup from the
// environment and never mutated afterwards.
type Security struct {
	RateLimitRequests int           `json:"rate_limit_requests"`
	RateLimitWindow   time.Duration `json:"-"`
	BanThreshold      int           `json:"ban_threshold"`
	BanWindow         time.Duration `json:"-"`
	BanDuration       time.Duration `json:"-"`
	Whitelist         []string      `json:"whitelist_ips"`

	// RewardDrawProbability is the chance that posting a message wins a
	// reward code. A single literal lives here instead of being buried in
	// handler code: 0.5 unless REWARD_DRAW_PROBABILITY overrides it.
	RewardDrawProbability float64 `json:"reward_draw_probability"`

	RateLimitWindowSeconds int `json:"rate_limit_window_seconds"`
	BanWindowSeconds       int `json:"ban_window_seconds"`
	BanDurationSeconds     int `json:"ban_duration_seconds"`
}

var securityValue atomic.Value

func init() {
	securityValue.Store(defaultSecurity())
}

func defaultSecurity() Security {
	return withDerived(Security{
		RateLimitRequests:      10,
		RateLimitWindowSeconds: 60,
		BanThreshold:           100,
		BanWindowSeconds:       300,
		BanDurationSeconds:     3600,
		Whitelist:              []string{"127.0.0.1", "::1"},
		RewardDrawProbability:  0.5,
	})
}

func withDerived(sec Security) Security {
	sec.RateLimitWindow = time.Duration(sec.RateLimitWindowSeconds) * time.Second
	sec.BanWindow = time.Duration(sec.BanWindowSeconds) * time.Second
	sec.BanDuration = time.Duration(sec.BanDurationSeconds) * time.Second
	return sec
}

// LoadSecurity reads the gating configuration from the environment. Called
// once during bootstrap; later calls overwrite the snapshot wholesale.
func LoadSecurity() Security {
	def := defaultSecurity()

	sec := withDerived(Security{
		RateLimitRequests:      support.GetEnvInt("RATE_LIMIT_REQUESTS", def.RateLimitRequests),
		RateLimitWindowSeconds: support.GetEnvInt("RATE_LIMIT_WINDOW", def.RateLimitWindowSeconds),
		BanThreshold:           support.GetEnvInt("BAN_THRESHOLD", def.BanThreshold),
		BanWindowSeconds:       support.GetEnvInt("BAN_WINDOW", def.BanWindowSeconds),
		BanDurationSeconds:     support.GetEnvInt("BAN_DURATION", def.BanDurationSeconds),
		Whitelist:              support.GetEnvList("WHITELIST_IPS", def.Whitelist),
		RewardDrawProbability:  support.GetEnvFloat("REWARD_DRAW_PROBABILITY", def.RewardDrawProbability),
	})

	if sec.RateLimitRequests <= 0 {
		log.Warn("invalid RATE_LIMIT_REQUESTS, using default", "value", sec.RateLimitRequests)
		sec.RateLimitRequests = def.RateLimitRequests
	}
	if sec.RateLimitWindow <= 0 {
		sec.RateLimitWindowSeconds = def.RateLimitWindowSeconds
		sec = withDerived(sec)
	}
	if sec.RewardDrawProbability < 0 || sec.RewardDrawProbability > 1 {
		log.Warn("invalid REWARD_DRAW_PROBABILITY, using default", "value", sec.RewardDrawProbability)
		sec.RewardDrawProbability = def.RewardDrawProbability
	}

	securityValue.Store(sec)
	log.Debug("Security configuration loaded",
		"rate_limit", sec.RateLimitRequests,
		"rate_window", sec.RateLimitWindow,
		"ban_threshold", sec.BanThreshold,
		"ban_window", sec.BanWindow,
		"ban_duration", sec.BanDuration,
		"whitelist", sec.Whitelist,
	)
	return sec
}

// GetSecurity returns the current configuration snapshot.
func GetSecurity() Security {
	return securityValue.Load().(Security)
}

// IsWhitelisted reports whether the identity bypasses the gate entirely.
func (s Security) IsWhitelisted(identity string) bool {
	for _, entry := range s.Whitelist {
		if entry == identity {
			return true
		}
	}
	return false
}
