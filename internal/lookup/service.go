package lookup

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akl7777777/ippure-panel/internal/cache"
	"github.com/akl7777777/ippure-panel/internal/config"
	"github.com/akl7777777/ippure-panel/internal/fetch"
	"github.com/akl7777777/ippure-panel/internal/merge"
	"github.com/akl7777777/ippure-panel/internal/metrics"
	"github.com/akl7777777/ippure-panel/internal/model"
	"github.com/akl7777777/ippure-panel/internal/scrape"
	"github.com/akl7777777/ippure-panel/internal/store"
)

// Upstream is the part of the fetch client a lookup needs.
type Upstream interface {
	FetchAPI(ctx context.Context, node, ip string) (*model.APIInfo, error)
	FetchPage(ctx context.Context, node, ip string) (string, error)
}

// Query identifies one lookup. An empty IP asks about the egress address of
// the connection, optionally pinned to Node.
type Query struct {
	IP         string
	Node       string
	Precedence merge.Precedence
}

// FailedError is returned when both sources failed.
type FailedError struct {
	API error
	Web error
}

func (e *FailedError) Error() string { return "Both API and Web requests failed" }

// Details renders the per-source error text.
func (e *FailedError) Details() *model.FailureDetails {
	d := &model.FailureDetails{}
	if e.API != nil {
		d.API = e.API.Error()
	}
	if e.Web != nil {
		d.Web = e.Web.Error()
	}
	return d
}

// Service runs dual-source IPPure lookups.
type Service struct {
	upstream Upstream
	api      *Source
	web      *Source
	cache    cache.Cache // may be nil
	store    store.Store // may be nil
	localDB  *LocalDB    // may be nil
	log      *zap.Logger
}

// Options wires a Service by hand. Cache, Store and LocalDB are optional.
type Options struct {
	Upstream     Upstream
	APIRateLimit int
	WebRateLimit int
	Cache        cache.Cache
	Store        store.Store
	LocalDB      *LocalDB
	Log          *zap.Logger
}

func New(opts Options) *Service {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		upstream: opts.Upstream,
		api:      NewSource(SourceAPI, opts.APIRateLimit),
		web:      NewSource(SourceWeb, opts.WebRateLimit),
		cache:    opts.Cache,
		store:    opts.Store,
		localDB:  opts.LocalDB,
		log:      log,
	}
}

// NewService builds a Service from configuration. Optional layers that fail
// to open are logged and skipped.
func NewService(ctx context.Context, cfg *config.Config, client *fetch.Client, log *zap.Logger) *Service {
	opts := Options{
		Upstream:     client,
		APIRateLimit: cfg.APIRateLimit,
		WebRateLimit: cfg.WebRateLimit,
		LocalDB:      NewLocalDB(cfg.ASNDBPath, cfg.CityDBPath, log.Named("local")),
		Log:          log,
	}

	if cfg.CacheTTL > 0 {
		switch cfg.CacheBackend {
		case "redis":
			rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL, log.Named("cache"))
			if err != nil {
				log.Warn("redis cache unavailable, falling back to memory", zap.Error(err))
				opts.Cache = cache.NewMemory(cfg.CacheTTL)
			} else {
				opts.Cache = rc
			}
		default:
			opts.Cache = cache.NewMemory(cfg.CacheTTL)
		}
	}

	if cfg.PersistentCache {
		s, err := store.New(cfg.PersistentCacheType, cfg.PersistentCacheDSN, cfg.PersistentCacheTTL, log.Named("store"))
		if err != nil {
			log.Warn("failed to open persistent cache", zap.String("type", cfg.PersistentCacheType), zap.Error(err))
		} else {
			opts.Store = s
		}
	}

	log.Info("lookup service ready",
		zap.Int("api_rate_limit", cfg.APIRateLimit),
		zap.Int("web_rate_limit", cfg.WebRateLimit),
		zap.Bool("cache", opts.Cache != nil),
		zap.Bool("persistent_cache", opts.Store != nil),
		zap.Bool("local_db", opts.LocalDB != nil),
	)
	return New(opts)
}

// Lookup queries the API and the web page concurrently and merges whatever
// answered. Order: cache → persistent cache → upstream.
// Only address lookups without a pinned node are cached.
func (s *Service) Lookup(ctx context.Context, q Query) (*model.Report, error) {
	cacheable := q.IP != "" && q.Node == ""
	key := q.Precedence.String() + "|" + q.IP

	if cacheable {
		if r, ok := s.cached(ctx, key); ok {
			metrics.LookupsTotal.WithLabelValues("cached").Inc()
			return r, nil
		}
	}

	api, web, apiErr, webErr := s.fetch(ctx, q)
	if api == nil && web == nil {
		metrics.LookupsTotal.WithLabelValues("failed").Inc()
		s.log.Warn("all sources failed",
			zap.String("ip", q.IP), zap.String("node", q.Node),
			zap.NamedError("api", apiErr), zap.NamedError("web", webErr))
		return nil, &FailedError{API: apiErr, Web: webErr}
	}

	r := merge.Merge(api, web, q.Precedence)
	if q.IP != "" {
		r.IP = q.IP
	}
	if apiErr != nil {
		r.Warnings = append(r.Warnings, "API: "+apiErr.Error())
	}
	if webErr != nil {
		r.Warnings = append(r.Warnings, "Web: "+webErr.Error())
	}

	s.localDB.Enrich(r, r.IP)
	if r.IPAttr == "" {
		if _, ok := HostingOrg(r.ASN); ok {
			r.IPAttr = model.AttrDatacenter
		}
	}

	result := "complete"
	if r.Degraded {
		result = "degraded"
	}
	metrics.LookupsTotal.WithLabelValues(result).Inc()
	s.log.Info("lookup done",
		zap.String("ip", r.IP),
		zap.String("node", q.Node),
		zap.String("score_field", r.ScoreField),
		zap.Bool("api", r.Sources.API),
		zap.Bool("web", r.Sources.Web),
		zap.Bool("degraded", r.Degraded),
	)

	// Degraded reports are not kept so a recovered source is asked again.
	if cacheable && !r.Degraded {
		if s.cache != nil {
			s.cache.Set(ctx, key, r)
		}
		if s.store != nil {
			s.store.Set(ctx, key, r)
		}
	}
	return r, nil
}

func (s *Service) cached(ctx context.Context, key string) (*model.Report, bool) {
	if s.cache != nil {
		if r, ok := s.cache.Get(ctx, key); ok {
			metrics.CacheHitsTotal.WithLabelValues(s.cache.Backend()).Inc()
			return r, true
		}
	}
	if s.store != nil {
		if r, ok := s.store.Get(ctx, key); ok {
			metrics.CacheHitsTotal.WithLabelValues("store").Inc()
			if s.cache != nil {
				s.cache.Set(ctx, key, r)
			}
			return r, true
		}
	}
	if s.cache != nil || s.store != nil {
		metrics.CacheMissesTotal.Inc()
	}
	return nil, false
}

// fetch runs both requests and waits for both to settle. A failure of one
// never cancels the other.
func (s *Service) fetch(ctx context.Context, q Query) (api *model.APIInfo, web *model.WebData, apiErr, webErr error) {
	var g errgroup.Group

	g.Go(func() error {
		api, apiErr = s.fetchAPI(ctx, q)
		return nil
	})
	g.Go(func() error {
		web, webErr = s.fetchWeb(ctx, q)
		return nil
	})
	_ = g.Wait()
	return api, web, apiErr, webErr
}

func (s *Service) fetchAPI(ctx context.Context, q Query) (*model.APIInfo, error) {
	if !s.api.Acquire() {
		metrics.UpstreamRequestsTotal.WithLabelValues(SourceAPI, "rate_limited").Inc()
		return nil, ErrRateLimited
	}
	started := time.Now()
	info, err := s.upstream.FetchAPI(ctx, q.Node, q.IP)
	metrics.ObserveUpstream(SourceAPI, outcome(err), started)
	if err != nil {
		s.log.Debug("api request failed", zap.String("ip", q.IP), zap.Error(err))
		return nil, err
	}
	if q.IP != "" && info.IP != "" && info.IP != q.IP {
		s.log.Warn("api answered for a different address", zap.String("asked", q.IP), zap.String("got", info.IP))
	}
	return info, nil
}

func (s *Service) fetchWeb(ctx context.Context, q Query) (*model.WebData, error) {
	if !s.web.Acquire() {
		metrics.UpstreamRequestsTotal.WithLabelValues(SourceWeb, "rate_limited").Inc()
		return nil, ErrRateLimited
	}
	started := time.Now()
	page, err := s.upstream.FetchPage(ctx, q.Node, q.IP)
	metrics.ObserveUpstream(SourceWeb, outcome(err), started)
	if err != nil {
		s.log.Debug("web request failed", zap.String("ip", q.IP), zap.Error(err))
		return nil, err
	}
	data := scrape.Extract(page)
	if data.Empty() {
		s.log.Debug("page yielded no fields", zap.String("ip", q.IP), zap.Int("bytes", len(page)))
	}
	return data, nil
}

func outcome(err error) string {
	var se *fetch.StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &se):
		return "status"
	default:
		return "error"
	}
}

// Stats returns service statistics.
func (s *Service) Stats(ctx context.Context) *model.StatsResponse {
	resp := &model.StatsResponse{
		CacheBackend:           "none",
		PersistentCacheEnabled: s.store != nil,
		LocalDB:                s.localDB != nil,
		KnownHostingASNs:       len(HostingASNs),
	}
	for _, src := range []*Source{s.api, s.web} {
		resp.Sources = append(resp.Sources, model.SourceStatus{
			Name:        src.Name,
			Available:   src.Available(),
			RateLimit:   src.RateLimit,
			UsedLastMin: src.UsedLastMinute(),
		})
	}
	if s.cache != nil {
		resp.CacheBackend = s.cache.Backend()
		resp.CacheSize = s.cache.Size(ctx)
		resp.CacheTTL = s.cache.TTL().String()
	}
	if s.store != nil {
		resp.PersistentCacheSize = s.store.Size(ctx)
	}
	return resp
}

// Close cleans up resources.
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
	s.localDB.Close()
	if s.store != nil {
		s.store.Close()
	}
}
