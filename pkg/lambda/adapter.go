package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// Adapter translates platform events into calls on the wrapped application
type Adapter struct {
	handler http.Handler
	loadErr error
	logger  *logrus.Logger
	metrics *Metrics
}

// Option configures an Adapter
type Option func(*Adapter)

// WithMetrics records invocations in m
func WithMetrics(m *Metrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// NewAdapter wraps the loaded application. When loading failed the adapter
// serves StandIn(result.Err) instead, so it can always be constructed.
func NewAdapter(result LoadResult, logger *logrus.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	a := &Adapter{handler: result.Handler, logger: logger}
	for _, opt := range opts {
		opt(a)
	}

	if !result.OK() {
		a.loadErr = result.Err
		if a.loadErr == nil {
			a.loadErr = errors.New("no application handler")
		}
		logger.WithError(a.loadErr).Error("Failed to load application, serving stand-in")
		a.handler = StandIn(a.loadErr)
	}

	return a
}

// LoadError returns the error that put the adapter into stand-in mode, if any
func (a *Adapter) LoadError() error {
	return a.loadErr
}

// Handle serves one event. The returned error is always nil: every failure is
// reported through a 500 envelope.
func (a *Adapter) Handle(ctx context.Context, event Event) (resp Envelope, err error) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			perr := panicError(rec)
			a.logger.WithFields(logrus.Fields{
				"method": event.HTTPMethod,
				"path":   event.Path,
				"stack":  string(debug.Stack()),
			}).WithError(perr).Error("Request handling panicked")
			a.metrics.failure("panic")
			resp, err = ErrorEnvelope(perr), nil
		}
		a.metrics.observe(resp.StatusCode, time.Since(start))
	}()

	resp, serveErr := a.serve(ctx, event)
	if serveErr != nil {
		a.logger.WithFields(logrus.Fields{
			"method": event.HTTPMethod,
			"path":   event.Path,
		}).WithError(serveErr).Error("Request handling failed")
		a.metrics.failure("error")
		return ErrorEnvelope(serveErr), nil
	}

	a.logger.WithFields(logrus.Fields{
		"method":      event.HTTPMethod,
		"path":        event.Path,
		"status_code": resp.StatusCode,
		"latency":     time.Since(start),
	}).Debug("Event handled")

	return resp, nil
}

func (a *Adapter) serve(ctx context.Context, event Event) (Envelope, error) {
	env, body, err := BuildEnviron(event)
	if err != nil {
		return Envelope{}, err
	}

	req, err := env.NewRequest(ctx, body)
	if err != nil {
		return Envelope{}, err
	}

	rec := newRecorder()
	a.handler.ServeHTTP(rec, req)

	return rec.envelope(), nil
}

// ErrorEnvelope is the fixed response used when handling an event fails
func ErrorEnvelope(err error) Envelope {
	body, _ := json.Marshal(map[string]string{
		"error":   err.Error(),
		"message": "Internal server error",
	})

	return Envelope{
		StatusCode: http.StatusInternalServerError,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(body),
	}
}

// StandIn returns the application served when the real one failed to load.
// It answers every path with a plain-text message carrying loadErr.
func StandIn(loadErr error) http.Handler {
	message := fmt.Sprintf("application failed to load: %v", loadErr)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, message)
	})
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("%v", rec)
}
