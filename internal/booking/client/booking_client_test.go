package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
)

func newTestBookingClient(url string, timeout time.Duration, attempts int) *BookingClient {
	c := NewBookingClient(url, timeout, attempts, zap.NewNop())
	c.backoffBase = time.Millisecond
	return c
}

func bookingRequest() domain.BookingRequest {
	return domain.BookingRequest{
		IdempotencyKey: "idem-1",
		AuthToken:      "secret-token",
		ServiceType:    domain.ServiceHotel,
		ItemID:         "h-1",
		UnitIDs:        []string{"r1", "r2"},
		Party:          domain.PartyCounts{Adults: 2},
		Payment: domain.PaymentFragment{
			Method:        domain.PaymentCreditCard,
			MaskedSummary: "**** **** **** 1234",
		},
		TotalAmount: 2800000,
	}
}

func TestSubmit_Success(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/bookings", r.URL.Path)
		assert.Equal(t, "idem-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":123,"code":"WP-2026-0001","status":"pending"}}`))
	}))
	defer srv.Close()

	conf, err := newTestBookingClient(srv.URL+"/api/", time.Second, 3).Submit(context.Background(), bookingRequest())

	require.NoError(t, err)
	assert.Equal(t, &domain.BookingConfirmation{BookingID: "123", BookingCode: "WP-2026-0001", Status: "pending"}, conf)
	assert.Equal(t, float64(2800000), got["totalAmount"])
	assert.Equal(t, "hotel", got["serviceType"])
	assert.NotContains(t, got, "AuthToken")
	assert.NotContains(t, got, "IdempotencyKey")
}

func TestSubmit_RetriesTransientWithSameKey(t *testing.T) {
	var calls int32
	keys := make(chan string, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys <- r.Header.Get("Idempotency-Key")
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"bookingId":"b-1","bookingCode":"WP-1"}`))
	}))
	defer srv.Close()

	conf, err := newTestBookingClient(srv.URL, time.Second, 3).Submit(context.Background(), bookingRequest())

	require.NoError(t, err)
	assert.Equal(t, "WP-1", conf.BookingCode)
	assert.Equal(t, "confirmed", conf.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	close(keys)
	for k := range keys {
		assert.Equal(t, "idem-1", k)
	}
}

func TestSubmit_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestBookingClient(srv.URL, time.Second, 3).Submit(context.Background(), bookingRequest())

	te, ok := apperrors.IsTransientError(err)
	require.True(t, ok)
	assert.False(t, te.Timeout)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSubmit_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "422 with field list",
			status: http.StatusUnprocessableEntity,
			body:   `{"message":"invalid passenger data","errors":[{"field":"passengers[0].identityDocument","message":"unknown document"}]}`,
			check: func(t *testing.T, err error) {
				ve, ok := apperrors.IsValidationError(err)
				require.True(t, ok)
				assert.Equal(t, "invalid passenger data", ve.Message)
				assert.Equal(t, []apperrors.ValidationDetail{{Field: "passengers[0].identityDocument", Message: "unknown document"}}, ve.Details)
			},
		},
		{
			name:   "400 with field map",
			status: http.StatusBadRequest,
			body:   `{"errors":{"contact.email":["is invalid"]}}`,
			check: func(t *testing.T, err error) {
				ve, ok := apperrors.IsValidationError(err)
				require.True(t, ok)
				assert.Equal(t, []apperrors.ValidationDetail{{Field: "contact.email", Message: "is invalid"}}, ve.Details)
			},
		},
		{
			name:   "409 conflict",
			status: http.StatusConflict,
			body:   `{"message":"room 101 is no longer available"}`,
			check: func(t *testing.T, err error) {
				ce, ok := apperrors.IsConflictError(err)
				require.True(t, ok)
				assert.Equal(t, "room 101 is no longer available", ce.Message)
			},
		},
		{
			name:   "410 gone",
			status: http.StatusGone,
			check: func(t *testing.T, err error) {
				_, ok := apperrors.IsConflictError(err)
				assert.True(t, ok)
			},
		},
		{
			name:   "401 is not retried",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				_, ok := apperrors.IsForbiddenError(err)
				assert.True(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestBookingClient(srv.URL, time.Second, 3).Submit(context.Background(), bookingRequest())

			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestSubmit_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := newTestBookingClient(srv.URL, 20*time.Millisecond, 1).Submit(context.Background(), bookingRequest())

	te, ok := apperrors.IsTransientError(err)
	require.True(t, ok)
	assert.True(t, te.Timeout)
}

func TestSubmit_TimeoutBoundsAllAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(300 * time.Millisecond):
		}
	}))
	defer srv.Close()

	start := time.Now()
	_, err := newTestBookingClient(srv.URL, 100*time.Millisecond, 3).Submit(context.Background(), bookingRequest())
	elapsed := time.Since(start)

	te, ok := apperrors.IsTransientError(err)
	require.True(t, ok)
	assert.True(t, te.Timeout)
	assert.Less(t, elapsed, 250*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSubmit_MissingReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	_, err := newTestBookingClient(srv.URL, time.Second, 3).Submit(context.Background(), bookingRequest())

	_, ok := apperrors.IsTransientError(err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "no booking reference")
}

func TestSubmit_OpenBreakerShortCircuits(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := newTestBookingClient(srv.URL, time.Second, 1)

	for i := 0; i < 5; i++ {
		_, _ = c.Submit(context.Background(), bookingRequest())
	}
	_, err := c.Submit(context.Background(), bookingRequest())

	_, ok := apperrors.IsTransientError(err)
	assert.True(t, ok)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestSubmit_ValidationErrorsDoNotTripBreaker(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()
	c := newTestBookingClient(srv.URL, time.Second, 1)

	for i := 0; i < 8; i++ {
		_, err := c.Submit(context.Background(), bookingRequest())
		_, ok := apperrors.IsValidationError(err)
		require.True(t, ok)
	}
	assert.Equal(t, int32(8), atomic.LoadInt32(&calls))
}
