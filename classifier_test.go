package offlinecache

import (
	"net/http/httptest"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Category
	}{
		{"/styles/main.css", CategoryStaticAsset},
		{"/app.js", CategoryStaticAsset},
		{"/icons/icon-192.png", CategoryStaticAsset},
		{"/fonts/inter.woff2", CategoryStaticAsset},
		{"/photo.jpeg", CategoryStaticAsset},
		// extension check wins over the api prefix
		{"/api/logo.png", CategoryStaticAsset},
		{"/api/style.css", CategoryStaticAsset},
		{"/api/users", CategoryAPIData},
		{"/api/users/42", CategoryAPIData},
		{"/data/indexeddb/sync", CategoryAPIData},
		{"/page?api=1", CategoryAPIData},
		// presence of the api parameter is enough, the value is ignored
		{"/page?api", CategoryAPIData},
		{"/", CategoryDefault},
		{"/about", CategoryDefault},
		{"/apiary", CategoryDefault},
		// suffix match is case-sensitive
		{"/image.PNG", CategoryDefault},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", tt.url, nil)
		if got := Classify(newRequestRecord(r)); got != tt.want {
			t.Errorf("Classify(%s) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestClassifyIsStateless(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/users", nil)
	record := newRequestRecord(r)
	first := Classify(record)
	for i := 0; i < 10; i++ {
		if got := Classify(record); got != first {
			t.Fatalf("Classify changed from %s to %s on repeat call", first, got)
		}
	}
}

func TestRequestRecordDestination(t *testing.T) {
	r := httptest.NewRequest("GET", "/dashboard", nil)
	r.Header.Set("Sec-Fetch-Dest", "document")
	record := newRequestRecord(r)
	if record.Destination != destinationDocument {
		t.Fatalf("Destination is %q", record.Destination)
	}
}
