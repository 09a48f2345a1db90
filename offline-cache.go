// Package offlinecache is an offline-capable request-interception layer.
// It classifies requests bound for an origin and serves them through one of
// three caching strategies backed by versioned store namespaces, so the
// application keeps working without connectivity.
package offlinecache

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/offline-cache/offline-cache/cache"
)

type Config struct {
	// Storage for response snapshots. An in-memory store is used if nil.
	Store cache.Store
	// URL of the origin server requests are intercepted for.
	OriginURL url.URL
	// Namespace holding static assets and the seeded app shell.
	StaticNamespace string
	// Namespace holding runtime/API responses.
	RuntimeNamespace string
	// Paths pre-cached on install. DefaultSeedPaths if nil.
	SeedPaths []string
	// Logger to use. A console logger is used if nil.
	Logger *zerolog.Logger
	// Optional fetch collaborator. Defaults to fetching from OriginURL
	// with http.DefaultClient. Timeouts, if wanted, belong here.
	Fetcher Fetcher
	// Optional sink for status events. Defaults to logging them.
	Notifier Notifier
}

// OfflineCache intercepts requests bound for an origin and serves them
// through the caching strategies. It is the sole entry point for the
// strategy engine; strategies are never invoked directly from outside.
type OfflineCache struct {
	store            cache.Store
	fetcher          Fetcher
	notifier         Notifier
	log              zerolog.Logger
	staticNamespace  string
	runtimeNamespace string
	seedPaths        []string
	syncQueue        syncQueue
}

// ErrPassThrough is returned by Handle for requests this engine does not
// intercept. Callers should let those take the default network path.
var ErrPassThrough = errors.New("request not intercepted")

// statusHeader reports where the response came from: hit, network,
// fallback, shell or synthetic.
const statusHeader = "Offline-Cache-Status"

// CreateOfflineCache initializes the interception layer.
// Call Install and Activate afterwards to set up the store namespaces.
func CreateOfflineCache(config Config) *OfflineCache {
	// use console logger if not specified in config
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}

	// create a child logger and add defaults
	logger = logger.With().
		Str("origin", config.OriginURL.String()).
		Logger()

	o := &OfflineCache{
		store:            config.Store,
		fetcher:          config.Fetcher,
		notifier:         config.Notifier,
		log:              logger,
		staticNamespace:  config.StaticNamespace,
		runtimeNamespace: config.RuntimeNamespace,
		seedPaths:        config.SeedPaths,
	}
	if o.store == nil {
		o.store = cache.NewMemoryStore()
	}
	if o.fetcher == nil {
		o.fetcher = newOriginFetcher(config.OriginURL, nil)
	}
	if o.notifier == nil {
		o.notifier = logNotifier{logger}
	}
	if o.staticNamespace == "" {
		o.staticNamespace = "app-static-v1"
	}
	if o.runtimeNamespace == "" {
		o.runtimeNamespace = "app-runtime-v1"
	}
	if o.seedPaths == nil {
		o.seedPaths = DefaultSeedPaths
	}
	return o
}

// Handle runs the classify-dispatch-respond cycle for one request and
// always terminates in a valid response: live, cached, or one of the
// synthesized fallbacks. No failure escapes past this point. Requests
// outside the engine's scope return ErrPassThrough instead.
func (o *OfflineCache) Handle(r *http.Request) (*http.Response, error) {
	if !intercepts(r) {
		return nil, ErrPassThrough
	}
	record := newRequestRecord(r)
	category := Classify(record)

	var res *http.Response
	var served servedFrom
	switch category {
	case CategoryStaticAsset:
		res, served = o.cacheFirst(r)
	case CategoryAPIData:
		res, served = o.networkFirst(r)
	default:
		res, served = o.networkFirstWithFallback(r, record)
	}
	res.Header.Set(statusHeader, string(served))
	o.logRequest(r, category, served, res.StatusCode)
	return res, nil
}

// intercepts reports whether the request is in scope for the strategy
// engine: HTTP(S) GETs only. Non-HTTP schemes (blob:, data:, extensions)
// and write methods never reach the classifier.
func intercepts(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	scheme := r.URL.Scheme
	return scheme == "" || scheme == "http" || scheme == "https"
}

// ServeHTTP implements the http.Handler interface.
func (o *OfflineCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res, err := o.Handle(r)
	if err != nil {
		o.passThrough(w, r)
		return
	}
	o.send(w, res)
}

// passThrough forwards a request to the origin without interception.
// Unreachable write requests land on the sync queue for later replay.
func (o *OfflineCache) passThrough(w http.ResponseWriter, r *http.Request) {
	o.log.Trace().Msgf("passing through %s %s", r.Method, r.URL.String())
	res, err := o.fetcher.Fetch(r)
	if err != nil {
		if r.Method != http.MethodGet {
			o.syncQueue.enqueue(r)
			o.log.Debug().Err(err).Str("url", r.URL.String()).
				Int("queued", o.syncQueue.size()).
				Msg("Write request queued for sync")
			http.Error(w, "Sem conexão", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	o.send(w, res)
}

func (o *OfflineCache) send(w http.ResponseWriter, res *http.Response) {
	if res.Body != nil {
		defer res.Body.Close()
	}
	copyHeader(w.Header(), res.Header)
	w.WriteHeader(res.StatusCode)
	if res.Body != nil {
		bytesWritten, err := io.Copy(w, res.Body)
		if err != nil {
			o.log.Error().Err(err).Msg("Could not write response body to client")
		}
		o.log.Trace().Msgf("Wrote body (%d bytes)", bytesWritten)
	}
}

func (o *OfflineCache) logRequest(r *http.Request, category Category, served servedFrom, status int) {
	isHit := 0
	if served == servedFromCache {
		isHit = 1
	}
	o.log.Debug().
		Str("method", r.Method).
		Str("url", r.URL.String()).
		Str("category", category.String()).
		Str("served", string(served)).
		Int("status", status).
		Int("hit", isHit).
		Msg("Sending response to client")
}
