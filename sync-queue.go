package offlinecache

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// syncQueue records write requests that could not reach the origin so they
// can be replayed once connectivity returns. It is deliberately a stub:
// requests are replayed verbatim, bodies are not captured, and conflicts
// are not resolved.
type syncQueue struct {
	mutex   sync.Mutex
	pending []queuedWrite
}

type queuedWrite struct {
	Method   string
	URL      string
	Header   http.Header
	QueuedAt time.Time
}

func (q *syncQueue) enqueue(r *http.Request) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.pending = append(q.pending, queuedWrite{
		Method:   r.Method,
		URL:      r.URL.String(),
		Header:   r.Header.Clone(),
		QueuedAt: time.Now(),
	})
}

func (q *syncQueue) drain() []queuedWrite {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	pending := q.pending
	q.pending = nil
	return pending
}

func (q *syncQueue) requeue(writes []queuedWrite) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.pending = append(writes, q.pending...)
}

func (q *syncQueue) size() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.pending)
}

// ReplaySync replays queued write requests against the origin and emits a
// sync-complete event with the outcome. Requests that fail again are put
// back on the queue.
func (o *OfflineCache) ReplaySync(ctx context.Context) {
	writes := o.syncQueue.drain()
	if len(writes) == 0 {
		o.notifier.Notify(EventSyncComplete, map[string]any{"replayed": 0, "failed": 0})
		return
	}
	failed := make([]queuedWrite, 0)
	for _, write := range writes {
		req, err := http.NewRequestWithContext(ctx, write.Method, write.URL, nil)
		if err != nil {
			o.log.Error().Err(err).Str("url", write.URL).Msg("Could not rebuild queued request")
			continue
		}
		copyHeader(req.Header, write.Header)
		res, err := o.fetcher.Fetch(req)
		if err != nil {
			o.log.Debug().Err(err).Str("url", write.URL).Msg("Queued request still unreachable")
			failed = append(failed, write)
			continue
		}
		res.Body.Close()
	}
	if len(failed) > 0 {
		o.syncQueue.requeue(failed)
	}
	o.notifier.Notify(EventSyncComplete, map[string]any{
		"replayed": len(writes) - len(failed),
		"failed":   len(failed),
	})
}
