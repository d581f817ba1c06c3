package utils

import (
	"bytes"
	"net/http"
	"sync"
)

var bufPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// ReadResponseBody drains the response body through a pooled buffer. Media
// payloads arrive in bursts during pre-fetch batches, so reusing buffers
// keeps allocation pressure flat.
func ReadResponseBody(resp *http.Response) ([]byte, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufPool.Put(buf)
	}()

	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}

	return append([]byte(nil), buf.Bytes()...), nil
}
