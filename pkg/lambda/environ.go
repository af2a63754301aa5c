package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Keys of the synthetic request environment
const (
	KeyRequestMethod  = "REQUEST_METHOD"
	KeyPathInfo       = "PATH_INFO"
	KeyQueryString    = "QUERY_STRING"
	KeyServerName     = "SERVER_NAME"
	KeyServerPort     = "SERVER_PORT"
	KeyServerProtocol = "SERVER_PROTOCOL"
	KeyURLScheme      = "URL_SCHEME"
	KeyRemoteAddr     = "REMOTE_ADDR"
	KeyContentType    = "CONTENT_TYPE"
	KeyContentLength  = "CONTENT_LENGTH"

	headerPrefix = "HTTP_"
)

// Fixed server identity reported to the wrapped application
const (
	serverName     = "localhost"
	serverPort     = "80"
	serverProtocol = "HTTP/1.1"
	urlScheme      = "http"
)

// Environ is the gateway-interface style description of one request
type Environ map[string]string

// EnvKey maps a header name to its environment key: upper-cased, hyphens
// turned into underscores and prefixed with HTTP_, except for Content-Type
// and Content-Length which keep their bare names.
func EnvKey(header string) string {
	key := strings.ToUpper(strings.ReplaceAll(header, "-", "_"))
	if key == KeyContentType || key == KeyContentLength {
		return key
	}
	return headerPrefix + key
}

// HeaderName is the inverse of EnvKey. It returns false for keys that do not
// describe a header.
func HeaderName(key string) (string, bool) {
	switch key {
	case KeyContentType:
		return "Content-Type", true
	case KeyContentLength:
		return "Content-Length", true
	}
	name, ok := strings.CutPrefix(key, headerPrefix)
	if !ok || name == "" {
		return "", false
	}
	return http.CanonicalHeaderKey(strings.ReplaceAll(name, "_", "-")), true
}

// QueryString rebuilds the raw query from the event parameters. Keys are
// emitted in sorted order; multi-value parameters take precedence.
func QueryString(single map[string]string, multi map[string][]string) string {
	values := make(map[string][]string, len(single)+len(multi))
	for k, v := range single {
		values[k] = []string{v}
	}
	for k, vs := range multi {
		if len(vs) > 0 {
			values[k] = vs
		}
	}

	var b strings.Builder
	for _, k := range sortedKeys(values) {
		for _, v := range values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// DecodeBody returns the raw request body carried by the event
func DecodeBody(event Event) ([]byte, error) {
	if !event.IsBase64Encoded {
		return []byte(event.Body), nil
	}

	raw, err := base64.StdEncoding.DecodeString(event.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	if !utf8.Valid(raw) {
		return nil, ErrInvalidUTF8
	}
	return raw, nil
}

// BuildEnviron derives the synthetic environment and request body from an event
func BuildEnviron(event Event) (Environ, []byte, error) {
	method := event.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}
	path := event.Path
	if path == "" {
		path = "/"
	}

	body, err := DecodeBody(event)
	if err != nil {
		return nil, nil, err
	}

	env := Environ{
		KeyRequestMethod:  method,
		KeyPathInfo:       path,
		KeyQueryString:    QueryString(event.QueryStringParameters, event.MultiValueQueryStringParameters),
		KeyServerName:     serverName,
		KeyServerPort:     serverPort,
		KeyServerProtocol: serverProtocol,
		KeyURLScheme:      urlScheme,
	}
	if ip := event.RequestContext.Identity.SourceIP; ip != "" {
		env[KeyRemoteAddr] = ip
	}

	for _, name := range sortedKeys(event.MultiValueHeaders) {
		if values := event.MultiValueHeaders[name]; len(values) > 0 {
			env[EnvKey(name)] = strings.Join(values, ",")
		}
	}
	for _, name := range sortedKeys(event.Headers) {
		env[EnvKey(name)] = event.Headers[name]
	}

	// The body length always wins over whatever the client claimed.
	if len(body) > 0 {
		env[KeyContentLength] = strconv.Itoa(len(body))
	}

	return env, body, nil
}

// NewRequest turns the environment into a server-side *http.Request bound to ctx
func (e Environ) NewRequest(ctx context.Context, body []byte) (*http.Request, error) {
	proto := e[KeyServerProtocol]
	major, minor, ok := http.ParseHTTPVersion(proto)
	if !ok {
		return nil, fmt.Errorf("invalid server protocol %q", proto)
	}

	target := &url.URL{Path: e[KeyPathInfo], RawQuery: e[KeyQueryString]}

	var reader io.Reader = http.NoBody
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, e[KeyRequestMethod], target.RequestURI(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Proto = proto
	req.ProtoMajor, req.ProtoMinor = major, minor
	req.RequestURI = target.RequestURI()

	for key, value := range e {
		name, ok := HeaderName(key)
		if !ok || name == "Content-Length" {
			continue
		}
		req.Header.Set(name, value)
	}

	req.Host = req.Header.Get("Host")
	req.Header.Del("Host")
	if req.Host == "" {
		req.Host = e[KeyServerName]
		if port := e[KeyServerPort]; port != "" && port != "80" {
			req.Host = net.JoinHostPort(req.Host, port)
		}
	}

	if addr := e[KeyRemoteAddr]; addr != "" {
		req.RemoteAddr = net.JoinHostPort(addr, "0")
	}

	return req, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
