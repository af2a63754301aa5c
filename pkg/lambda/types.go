package lambda

import (
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// Event is the inbound platform description of an HTTP request
type Event = events.APIGatewayProxyRequest

// Envelope is the platform description of the HTTP response
type Envelope = events.APIGatewayProxyResponse

// Request-time failures
var (
	ErrInvalidBase64 = errors.New("request body is not valid base64")
	ErrInvalidUTF8   = errors.New("request body is not valid UTF-8")
)

// LoadResult is the outcome of constructing the wrapped application.
// Exactly one of Handler and Err is expected to be set.
type LoadResult struct {
	Handler http.Handler
	Err     error

	// Close releases resources held by Handler, if any
	Close func() error
}

// Loaded wraps a successfully constructed application
func Loaded(h http.Handler, closeFn func() error) LoadResult {
	return LoadResult{Handler: h, Close: closeFn}
}

// Failed records a load failure
func Failed(err error) LoadResult {
	return LoadResult{Err: err}
}

// OK reports whether the application loaded
func (r LoadResult) OK() bool {
	return r.Err == nil && r.Handler != nil
}
