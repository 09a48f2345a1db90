package offlinecache

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/offline-cache/offline-cache/cache"
)

// Terminal fallback bodies, returned when neither the network nor the
// store can serve a request. External components depend on these exact
// formats.
const (
	offlineStaticBody  = "Recurso não disponível offline"
	offlineContentBody = "Conteúdo não disponível offline"
)

type offlineAPIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Offline bool   `json:"offline"`
}

// servedFrom says where a strategy got the response it returned.
// It ends up in the Offline-Cache-Status response header and in logs.
type servedFrom string

const (
	servedFromCache     servedFrom = "hit"
	servedFromNetwork   servedFrom = "network"
	servedFromFallback  servedFrom = "fallback"
	servedFromShell     servedFrom = "shell"
	servedFromSynthetic servedFrom = "synthetic"
)

// cacheKey returns the normalized request identity used as the store key.
// Keys assume idempotent GET semantics: method plus URI, nothing else.
func cacheKey(r *http.Request) string {
	return r.Method + ":" + r.URL.RequestURI()
}

// shellKey is the store key of the seeded root document (the app shell).
const shellKey = "GET:/"

// cacheFirst serves static assets. A stored response wins outright with no
// freshness check; the network is consulted only on a miss. A reachable
// origin answering non-ok is passed through untouched and never cached.
func (o *OfflineCache) cacheFirst(r *http.Request) (*http.Response, servedFrom) {
	key := cacheKey(r)
	if res := o.lookup(o.staticNamespace, key); res != nil {
		return res, servedFromCache
	}
	res, err := o.fetcher.Fetch(r)
	if err == nil && isOK(res) {
		o.storeDetached(o.staticNamespace, key, res)
		return res, servedFromNetwork
	}
	if res != nil {
		return res, servedFromNetwork
	}
	o.log.Debug().Err(err).Str("key", key).Msg("Static asset unreachable and not stored")
	return syntheticResponse(
		http.StatusServiceUnavailable,
		"text/plain; charset=utf-8",
		[]byte(offlineStaticBody),
	), servedFromSynthetic
}

// networkFirst serves API data. Freshness is preferred over availability:
// the store is purely a fallback for transport errors, never the default
// answer. A received non-ok response is returned as-is and not cached.
func (o *OfflineCache) networkFirst(r *http.Request) (*http.Response, servedFrom) {
	key := cacheKey(r)
	res, err := o.fetcher.Fetch(r)
	if err == nil {
		if isOK(res) {
			o.storeDetached(o.runtimeNamespace, key, res)
		}
		return res, servedFromNetwork
	}
	o.log.Debug().Err(err).Str("key", key).Msg("Network fetch failed, falling back to store")
	if res := o.lookup(o.runtimeNamespace, key); res != nil {
		return res, servedFromFallback
	}
	body, _ := json.Marshal(offlineAPIError{
		Error:   "Sem conexão",
		Message: "Dados não disponíveis offline",
		Offline: true,
	})
	return syntheticResponse(http.StatusServiceUnavailable, "application/json", body), servedFromSynthetic
}

// networkFirstWithFallback serves navigations and everything unclassified.
// On a transport error with no exact match, document navigations get the
// seeded root document instead, so client-side routes keep rendering
// offline.
func (o *OfflineCache) networkFirstWithFallback(r *http.Request, record RequestRecord) (*http.Response, servedFrom) {
	key := cacheKey(r)
	res, err := o.fetcher.Fetch(r)
	if err == nil {
		if isOK(res) {
			o.storeDetached(o.runtimeNamespace, key, res)
		}
		return res, servedFromNetwork
	}
	o.log.Debug().Err(err).Str("key", key).Msg("Network fetch failed, falling back to store")
	if res := o.lookup(o.runtimeNamespace, key); res != nil {
		return res, servedFromFallback
	}
	if record.Destination == destinationDocument {
		if res := o.lookup(o.staticNamespace, shellKey); res != nil {
			return res, servedFromShell
		}
	}
	return syntheticResponse(
		http.StatusServiceUnavailable,
		"text/plain; charset=utf-8",
		[]byte(offlineContentBody),
	), servedFromSynthetic
}

// lookup reads a stored snapshot. Store errors are logged and degraded to a
// miss so the calling strategy proceeds to its next source.
func (o *OfflineCache) lookup(namespace, key string) *http.Response {
	bts, ok, err := o.store.Get(namespace, key)
	if err != nil {
		o.log.Error().Err(err).Str("namespace", namespace).Str("key", key).
			Msg("Could not read from store")
		return nil
	}
	if !ok {
		return nil
	}
	res, err := bytesToResponse(bts)
	if err != nil {
		o.log.Error().Err(err).Str("key", key).Msg("Could not decode stored response")
		return nil
	}
	return res
}

// storeDetached snapshots the response and writes it back without blocking
// the response path. The snapshot is taken synchronously (it rewinds the
// body), only the store write is detached. Write failures are logged, never
// surfaced: a lost write-back costs a later cache miss, nothing more.
func (o *OfflineCache) storeDetached(namespace, key string, res *http.Response) {
	snapshot, err := responseToBytes(res)
	if err != nil {
		o.log.Error().Err(err).Str("key", key).Msg("Could not snapshot response")
		return
	}
	o.log.Trace().Str("namespace", namespace).Str("key", key).Msg("Writing to store")
	go func() {
		entry := cache.Entry{
			Key:        key,
			ReceivedAt: time.Now(),
			Bytes:      snapshot,
		}
		if err := o.store.Put(namespace, entry); err != nil {
			o.log.Error().Err(err).Str("namespace", namespace).Str("key", key).
				Msg("Could not write to store")
		}
	}()
}
