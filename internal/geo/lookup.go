package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oschwald/geoip2-golang"
	"golang.org/x/net/proxy"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"wishwall/internal/support"
)

const (
	lookupTimeout   = 3 * time.Second
	cacheTTL        = 12 * time.Hour
	maxResponseSize = 64 << 10
)

// Location is the best-effort enrichment attached to visits and messages.
// Every failure mode collapses to the zero value; gating never waits on this.
type Location struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
	ISP     string `json:"isp"`
}

type apiResponse struct {
	Status  string `json:"status"`
	Country string `json:"country"`
	Region  string `json:"regionName"`
	City    string `json:"city"`
	ISP     string `json:"isp"`
}

type cacheEntry struct {
	loc     Location
	expires time.Time
}

// Resolver answers IP-to-location queries from a local MMDB when one is
// configured, otherwise from the HTTP API, with a shared TTL cache in front.
type Resolver struct {
	apiURL  string
	client  *http.Client
	limiter *rate.Limiter
	mmdb    *geoip2.Reader

	cache sync.Map // ip -> cacheEntry
	group singleflight.Group
}

var (
	defaultResolver *Resolver
	defaultOnce     sync.Once
)

// Default returns the process-wide resolver, built from the environment on
// first use.
func Default() *Resolver {
	defaultOnce.Do(func() {
		defaultResolver = NewResolver()
	})
	return defaultResolver
}

// Lookup resolves through the default resolver.
func Lookup(ctx context.Context, ip string) Location {
	return Default().Lookup(ctx, ip)
}

func NewResolver() *Resolver {
	r := &Resolver{
		apiURL: support.GetEnv("GEO_API_URL", "http://ip-api.com/json"),
		client: newHTTPClient(support.GetEnv("GEO_PROXY", "")),
		// The public API allows 45 requests per minute; stay under it.
		limiter: rate.NewLimiter(rate.Every(1500*time.Millisecond), 5),
	}

	if path := support.GetEnv("GEOIP_CITY_DB", ""); path != "" {
		reader, err := geoip2.Open(path)
		if err != nil {
			log.Warn("Could not open GeoIP database, falling back to HTTP lookups", "path", path, "error", err)
		} else {
			r.mmdb = reader
		}
	}

	return r
}

func newHTTPClient(socksAddr string) *http.Client {
	client := &http.Client{Timeout: lookupTimeout}
	if socksAddr == "" {
		return client
	}

	dialer, err := proxy.SOCKS5("tcp", socksAddr, nil, proxy.Direct)
	if err != nil {
		log.Warn("Invalid GEO_PROXY address, using direct egress", "proxy", socksAddr, "error", err)
		return client
	}

	transport := &http.Transport{}
	if ctxDialer, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = ctxDialer.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	client.Transport = transport
	return client
}

// Lookup returns the location for the IP, or the zero Location on any
// failure. Concurrent lookups for one IP are collapsed into a single upstream
// call.
func (r *Resolver) Lookup(ctx context.Context, ip string) Location {
	if ip == "" {
		return Location{}
	}

	now := time.Now()
	if raw, ok := r.cache.Load(ip); ok {
		entry := raw.(cacheEntry)
		if now.Before(entry.expires) {
			return entry.loc
		}
	}

	result, _, _ := r.group.Do(ip, func() (interface{}, error) {
		loc := r.resolve(ctx, ip)
		r.cache.Store(ip, cacheEntry{loc: loc, expires: time.Now().Add(cacheTTL)})
		return loc, nil
	})

	loc, _ := result.(Location)
	return loc
}

func (r *Resolver) resolve(ctx context.Context, ip string) Location {
	if r.mmdb != nil {
		if loc, ok := r.lookupMMDB(ip); ok {
			return loc
		}
	}
	return r.lookupAPI(ctx, ip)
}

func (r *Resolver) lookupMMDB(ip string) (Location, bool) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{}, false
	}

	record, err := r.mmdb.City(parsed)
	if err != nil {
		return Location{}, false
	}

	loc := Location{
		Country: record.Country.Names["en"],
		City:    record.City.Names["en"],
	}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	if loc == (Location{}) {
		return Location{}, false
	}
	return loc, true
}

func (r *Resolver) lookupAPI(ctx context.Context, ip string) Location {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	if err := r.limiter.Wait(ctx); err != nil {
		return Location{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", r.apiURL, ip), nil)
	if err != nil {
		return Location{}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Debug("Geolocation lookup failed", "ip", ip, "error", err)
		return Location{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Location{}
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Status != "success" {
		return Location{}
	}

	return Location{
		Country: parsed.Country,
		Region:  parsed.Region,
		City:    parsed.City,
		ISP:     parsed.ISP,
	}
}
