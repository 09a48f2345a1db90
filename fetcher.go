package offlinecache

import (
	"net/http"
	"net/url"
)

// Fetcher performs the actual network fetch for a request.
// The strategy engine imposes no timeouts of its own; deadlines and
// cancellation belong to the Fetcher implementation.
type Fetcher interface {
	Fetch(r *http.Request) (*http.Response, error)
}

// FetchFunc adapts a plain function to the Fetcher interface.
type FetchFunc func(r *http.Request) (*http.Response, error)

func (f FetchFunc) Fetch(r *http.Request) (*http.Response, error) {
	return f(r)
}

// newOriginFetcher returns a Fetcher that directs requests to the given
// origin and performs them with the client.
func newOriginFetcher(origin url.URL, client *http.Client) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return FetchFunc(func(r *http.Request) (*http.Response, error) {
		req := r.Clone(r.Context())
		req.URL.Scheme = origin.Scheme
		req.URL.Host = origin.Host
		req.Host = origin.Host
		// server requests carry RequestURI, which clients must not send
		req.RequestURI = ""
		return client.Do(req)
	})
}
