package offlinecache

import (
	"net/http"
	"net/url"
	"strings"
)

// Category is the cache routing class of an intercepted request.
type Category int

const (
	CategoryStaticAsset Category = iota
	CategoryAPIData
	CategoryDefault
)

func (c Category) String() string {
	switch c {
	case CategoryStaticAsset:
		return "static-asset"
	case CategoryAPIData:
		return "api-data"
	default:
		return "default"
	}
}

// RequestRecord is the ephemeral view of a request used for classification.
// It exists only for one classify-dispatch-respond cycle and is never stored.
type RequestRecord struct {
	Path  string
	Query url.Values
	// Destination is the fetch destination as reported by the client,
	// e.g. "document" for a full page navigation.
	Destination string
}

func newRequestRecord(r *http.Request) RequestRecord {
	return RequestRecord{
		Path:        r.URL.Path,
		Query:       r.URL.Query(),
		Destination: r.Header.Get("Sec-Fetch-Dest"),
	}
}

const destinationDocument = "document"

var staticExtensions = []string{
	".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".woff", ".woff2",
}

// Classify maps a request record to its category. It is a pure, total
// function: every record maps to exactly one category, nothing can fail.
// The extension check runs first and wins, so "/api/logo.png" classifies
// as a static asset rather than API data.
func Classify(record RequestRecord) Category {
	for _, ext := range staticExtensions {
		if strings.HasSuffix(record.Path, ext) {
			return CategoryStaticAsset
		}
	}
	if strings.HasPrefix(record.Path, "/api/") ||
		strings.Contains(record.Path, "indexeddb") ||
		record.Query.Has("api") {
		return CategoryAPIData
	}
	return CategoryDefault
}
