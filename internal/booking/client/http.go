// Package client talks to the external booking REST API: catalog lookups
// and booking creation.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	apperrors "waypoint/internal/errors"
)

const maxErrorBody = 64 << 10

func newBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// Client mistakes must not open the breaker.
		IsSuccessful: func(err error) bool {
			_, transient := apperrors.IsTransientError(err)
			return !transient
		},
	})
}

// breakerError converts a rejected call into a transient error.
func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.NewTransientError("booking api temporarily disabled", err)
	}
	return err
}

func transportError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(op+" timed out", err)
	}
	return apperrors.NewTransientError(op+" failed", err)
}

// statusError maps a non-2xx response to the app error taxonomy.
func statusError(op string, status int, body []byte) error {
	payload := decodeObject(body)
	msg := firstString(payload, "message", "error", "detail")
	if msg == "" {
		msg = fmt.Sprintf("%s returned %d %s", op, status, http.StatusText(status))
	}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperrors.NewValidationError(msg, fieldDetails(payload)...)
	case status == http.StatusConflict || status == http.StatusGone:
		return apperrors.NewConflictError(msg)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return apperrors.NewTimeoutError(msg, nil)
	case status == http.StatusTooManyRequests || status >= 500:
		return apperrors.NewTransientError(msg, nil)
	case status == http.StatusNotFound:
		return apperrors.NewNotFoundError(msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.NewForbiddenError(msg)
	default:
		return apperrors.NewInternalError(msg, nil)
	}
}

func readBody(resp *http.Response) []byte {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return b
}

func decodeObject(body []byte) map[string]interface{} {
	var m map[string]interface{}
	if len(body) == 0 || json.Unmarshal(body, &m) != nil {
		return map[string]interface{}{}
	}
	return m
}

// unwrapData returns the "data" envelope when the API uses one.
func unwrapData(m map[string]interface{}) map[string]interface{} {
	if inner, ok := m["data"].(map[string]interface{}); ok {
		return inner
	}
	return m
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if s := strings.TrimSpace(cast.ToString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

// fieldDetails accepts either a list of {field, message} objects or a map of
// field to message(s) under "errors" or "details".
func fieldDetails(m map[string]interface{}) []apperrors.ValidationDetail {
	var raw interface{}
	for _, k := range []string{"errors", "details"} {
		if v, ok := m[k]; ok {
			raw = v
			break
		}
	}

	var details []apperrors.ValidationDetail
	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			obj := cast.ToStringMap(item)
			details = append(details, apperrors.ValidationDetail{
				Field:   firstString(obj, "field", "path"),
				Message: firstString(obj, "message", "msg"),
			})
		}
	case map[string]interface{}:
		for field, msg := range v {
			text := cast.ToString(msg)
			if list, ok := msg.([]interface{}); ok {
				text = strings.Join(cast.ToStringSlice(list), "; ")
			}
			details = append(details, apperrors.ValidationDetail{Field: field, Message: text})
		}
	}
	return details
}

// backoff returns the wait before the given retry (1-based), with ±20%
// jitter.
func backoff(base time.Duration, retry int) time.Duration {
	d := base << (retry - 1)
	jitter := time.Duration((rand.Float64()*0.4 - 0.2) * float64(d))
	return d + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
