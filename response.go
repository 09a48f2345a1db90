package offlinecache

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// bytesToResponse converts a stored snapshot back to a http.Response.
func bytesToResponse(b []byte) (*http.Response, error) {
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(b)), nil)
}

// responseToBytes converts a response to a byte slice.
// It returns the HTTP/1.1 representation of the response.
// The response body is consumed in the process and replaced with a fresh
// reader, so the caller can still send the response onward afterwards.
func responseToBytes(res *http.Response) ([]byte, error) {
	// write response to buffer
	buf := &bytes.Buffer{}
	if err := res.Write(buf); err != nil {
		return nil, err
	}
	// set response body back
	bts := buf.Bytes()
	clonedRes, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(bts)), res.Request)
	if err != nil {
		return nil, err
	}
	res.Body = clonedRes.Body
	// return buffer bytes
	return bts, nil
}

// syntheticResponse builds one of the terminal fallback responses returned
// when neither the network nor the store can serve a request.
func syntheticResponse(status int, contentType string, body []byte) *http.Response {
	return &http.Response{
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode: status,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header: http.Header{
			"Content-Type": []string{contentType},
		},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

// isOK reports whether the response has a success (2xx) status.
func isOK(res *http.Response) bool {
	return res.StatusCode >= 200 && res.StatusCode <= 299
}

// copyHeader copies the headers from one http.Header to another.
func copyHeader(dst, src http.Header) {
	for name, values := range src {
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}
