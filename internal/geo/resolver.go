package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"gossip_scan/internal/dataType"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"
)

// Resolver looks up one IP at a time against an ip-api style HTTP
// service. Lookups are single-attempt: any failure means the caller
// skips that node and moves on.
type Resolver struct {
	baseURL string
	hostKey string
	http    *http.Client
	rng     *rand.Rand

	delay      time.Duration
	rateLimit  int64
	rateWindow int64
	ledger     *dataType.RequestLedger
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Delay      time.Duration
	RateLimit  int64
	RateWindow int64
}

func NewResolver(opt Options, rng *rand.Rand) *Resolver {
	hostKey := opt.BaseURL
	if u, err := url.Parse(opt.BaseURL); err == nil && u.Host != "" {
		hostKey = u.Host
	}
	return &Resolver{
		baseURL:    opt.BaseURL,
		hostKey:    hostKey,
		http:       &http.Client{Timeout: opt.Timeout},
		rng:        rng,
		delay:      opt.Delay,
		rateLimit:  opt.RateLimit,
		rateWindow: opt.RateWindow,
		ledger:     dataType.NewRequestLedger(opt.RateWindow),
	}
}

type geoResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
}

// Pace blocks between consecutive lookups: a fixed delay with light
// jitter, then a wait until the sliding-window budget has room. The
// budget wait is bounded by the window length so a run can never hang.
func (r *Resolver) Pace() {
	if r.delay > 0 {
		jitter := time.Duration(0)
		if quarter := int64(r.delay / 4); quarter > 0 {
			jitter = time.Duration(r.rng.Int63n(quarter))
		}
		time.Sleep(r.delay + jitter)
	}

	if r.rateLimit <= 0 {
		return
	}
	for waited := int64(0); waited < r.rateWindow; waited++ {
		now := time.Now().Unix()
		if r.ledger.CountLast(r.hostKey, r.rateWindow, now) < r.rateLimit {
			return
		}
		time.Sleep(time.Second)
	}
}

// Resolve queries the service for one IP and returns its country code.
// Timeouts, non-200 responses, service-level failures and malformed
// bodies are all the same outcome: an error the caller treats as a skip.
func (r *Resolver) Resolve(ctx context.Context, ip string) (dataType.GeoResult, error) {
	lookupURL := fmt.Sprintf("%s/%s?fields=status,message,country,countryCode", r.baseURL, url.PathEscape(ip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return dataType.GeoResult{}, err
	}

	r.ledger.Add(r.hostKey)
	resp, err := r.http.Do(req)
	if err != nil {
		return dataType.GeoResult{}, fmt.Errorf("geo lookup for %s failed: %w", ip, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return dataType.GeoResult{}, fmt.Errorf("geo lookup for %s failed: %w", ip, err)
	}
	if resp.StatusCode != http.StatusOK {
		return dataType.GeoResult{}, fmt.Errorf("geo lookup for %s failed: status %d", ip, resp.StatusCode)
	}

	var parsed geoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return dataType.GeoResult{}, fmt.Errorf("geo lookup for %s failed: malformed response: %w", ip, err)
	}
	if parsed.Status != "success" {
		return dataType.GeoResult{}, fmt.Errorf("geo lookup for %s failed: %s", ip, parsed.Message)
	}
	if parsed.CountryCode == "" {
		return dataType.GeoResult{}, fmt.Errorf("geo lookup for %s failed: no country code", ip)
	}

	return dataType.GeoResult{
		IP:          ip,
		CountryCode: parsed.CountryCode,
		CountryName: parsed.Country,
	}, nil
}
