package offlinecache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/offline-cache/offline-cache/cache"
)

// NamespaceSet is the explicit set of namespaces considered current for the
// deployed version. Eviction compares against this set only; no version
// strings are hardcoded anywhere in the lifecycle logic.
type NamespaceSet map[string]struct{}

func NewNamespaceSet(names ...string) NamespaceSet {
	set := make(NamespaceSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func (s NamespaceSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// DefaultSeedPaths is the app-shell manifest seeded on install: the minimum
// set of resources needed to render the application offline. Changing the
// list requires bumping the namespace version so stale shells get evicted.
var DefaultSeedPaths = []string{
	"/",
	"/manifest.json",
	"/favicon.ico",
	"/icons/icon-192.png",
	"/icons/icon-512.png",
}

// Install idempotently creates the current namespaces and seeds the static
// namespace with the app shell. Seeding is all-or-nothing: one failed seed
// fails the whole install. A failed install is fatal for the offline-shell
// guarantee but callers may keep serving regardless.
func (o *OfflineCache) Install(ctx context.Context) error {
	for _, name := range []string{o.staticNamespace, o.runtimeNamespace} {
		if err := o.store.CreateNamespace(name); err != nil {
			return fmt.Errorf("create namespace %s: %w", name, err)
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, path := range o.seedPaths {
		path := path
		g.Go(func() error {
			return o.seed(ctx, path)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("seed app shell: %w", err)
	}
	o.log.Info().
		Int("seeds", len(o.seedPaths)).
		Str("namespace", o.staticNamespace).
		Msg("App shell seeded")
	return nil
}

func (o *OfflineCache) seed(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	res, err := o.fetcher.Fetch(req)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	defer res.Body.Close()
	if !isOK(res) {
		return fmt.Errorf("seed %s: unexpected status %d", path, res.StatusCode)
	}
	snapshot, err := responseToBytes(res)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	entry := cache.Entry{
		Key:        cacheKey(req),
		ReceivedAt: time.Now(),
		Bytes:      snapshot,
	}
	if err := o.store.Put(o.staticNamespace, entry); err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	return nil
}

// Activate evicts every namespace not in the current set. Deletions run in
// parallel and are best-effort per namespace; failures are aggregated into
// the returned error and never block sibling deletions. Activating when
// only current namespaces exist is a no-op. An update-available event is
// emitted when at least one stale namespace was found.
func (o *OfflineCache) Activate(ctx context.Context, current NamespaceSet) error {
	existing, err := o.store.Namespaces()
	if err != nil {
		return fmt.Errorf("list namespaces: %w", err)
	}
	stale := make([]string, 0)
	for _, name := range existing {
		if !current.Contains(name) {
			stale = append(stale, name)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	err = o.evict(stale)
	o.notifier.Notify(EventUpdateAvailable, map[string]any{"evicted": stale})
	return err
}

// PurgeStale deletes every namespace whose name starts with prefix and is
// not current. It is the explicit on-demand cleanup, separate from
// activation, with the same parallel best-effort semantics.
func (o *OfflineCache) PurgeStale(ctx context.Context, prefix string, current NamespaceSet) error {
	existing, err := o.store.Namespaces()
	if err != nil {
		return fmt.Errorf("list namespaces: %w", err)
	}
	stale := make([]string, 0)
	for _, name := range existing {
		if strings.HasPrefix(name, prefix) && !current.Contains(name) {
			stale = append(stale, name)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return o.evict(stale)
}

func (o *OfflineCache) evict(names []string) error {
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		i, name := i, name
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.log.Debug().Str("namespace", name).Msg("Evicting stale namespace")
			if err := o.store.DeleteNamespace(name); err != nil {
				errs[i] = fmt.Errorf("delete namespace %s: %w", name, err)
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
