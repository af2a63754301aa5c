package lambda

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"unicode/utf8"
)

// recorder is the http.ResponseWriter handed to the wrapped application. It
// captures the status, the headers as they were when the status was sent, and
// every body chunk written afterwards.
type recorder struct {
	header      http.Header
	sent        http.Header
	status      int
	wroteHeader bool
	chunks      [][]byte
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.sent = r.header.Clone()
	r.wroteHeader = true
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	r.chunks = append(r.chunks, append([]byte(nil), b...))
	return len(b), nil
}

// Flush satisfies http.Flusher; everything is buffered until the handler returns.
func (r *recorder) Flush() {}

// envelope assembles the response the platform expects
func (r *recorder) envelope() Envelope {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}

	body := bytes.Join(r.chunks, nil)

	headers := make(map[string]string, len(r.sent))
	for name, values := range r.sent {
		if len(values) > 0 {
			headers[name] = values[len(values)-1]
		}
	}
	if _, ok := headers["Content-Type"]; !ok && len(body) > 0 {
		headers["Content-Type"] = http.DetectContentType(body)
	}

	resp := Envelope{
		StatusCode: r.status,
		Headers:    headers,
	}
	if utf8.Valid(body) {
		resp.Body = string(body)
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(body)
		resp.IsBase64Encoded = true
	}
	return resp
}
