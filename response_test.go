package offlinecache

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestResponseToBytesBodyIntact(t *testing.T) {
	response := `HTTP/1.1 200 OK
Server: Test

This is the body`

	res, err := http.ReadResponse(bufio.NewReader(strings.NewReader(response)), nil)
	if err != nil {
		panic(err)
	}

	_, err = responseToBytes(res)
	if err != nil {
		t.Fatalf("Error: %v", err)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Error: %v", err)
	}
	if fmt.Sprintf("%s", body) != "This is the body" {
		t.Fatalf("Body: %s", body)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	response := "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nContent-Length: 5\r\n\r\nhello"

	res, err := http.ReadResponse(bufio.NewReader(strings.NewReader(response)), nil)
	if err != nil {
		panic(err)
	}
	bts, err := responseToBytes(res)
	if err != nil {
		t.Fatalf("Error: %v", err)
	}

	restored, err := bytesToResponse(bts)
	if err != nil {
		t.Fatalf("Error: %v", err)
	}
	if restored.StatusCode != 200 {
		t.Fatalf("Status: %d", restored.StatusCode)
	}
	if ct := restored.Header.Get("Content-Type"); ct != "text/html" {
		t.Fatalf("Content-Type: %s", ct)
	}
	body, _ := io.ReadAll(restored.Body)
	if string(body) != "hello" {
		t.Fatalf("Body: %s", body)
	}
}

func TestSyntheticResponse(t *testing.T) {
	res := syntheticResponse(503, "text/plain; charset=utf-8", []byte("offline"))

	if res.StatusCode != 503 {
		t.Fatalf("Status: %d", res.StatusCode)
	}
	if res.ContentLength != 7 {
		t.Fatalf("ContentLength: %d", res.ContentLength)
	}
	// synthesized responses must survive the same snapshot cycle as real ones
	bts, err := responseToBytes(res)
	if err != nil {
		t.Fatalf("Error: %v", err)
	}
	restored, err := bytesToResponse(bts)
	if err != nil {
		t.Fatalf("Error: %v", err)
	}
	body, _ := io.ReadAll(restored.Body)
	if string(body) != "offline" {
		t.Fatalf("Body: %s", body)
	}
}
