package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultBackoffBase = 200 * time.Millisecond
)

type BookingClient struct {
	baseURL     string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
	logger      *zap.Logger
	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration
}

func NewBookingClient(baseURL string, timeout time.Duration, maxAttempts int, logger *zap.Logger) *BookingClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &BookingClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		breaker:     newBreaker("booking-api", logger),
		logger:      logger,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		backoffBase: defaultBackoffBase,
	}
}

// Submit creates the booking. Transient failures are retried with the same
// Idempotency-Key so that the API can deduplicate a request that did land.
// The configured timeout bounds the whole call, retries and backoff included.
func (c *BookingClient) Submit(ctx context.Context, req domain.BookingRequest) (*domain.BookingConfirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.NewInternalError("encode booking request", err)
	}

	log := c.logger.With(
		zap.String("idempotencyKey", req.IdempotencyKey),
		zap.String("serviceType", string(req.ServiceType)),
		zap.String("itemId", req.ItemID))

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		conf, err := c.submitOnce(ctx, body, req)
		if err == nil {
			log.Info("booking created", zap.String("bookingCode", conf.BookingCode), zap.Int("attempt", attempt))
			return conf, nil
		}
		lastErr = err

		te, transient := apperrors.IsTransientError(err)
		if !transient || te.Timeout || attempt == c.maxAttempts {
			break
		}
		wait := backoff(c.backoffBase, attempt)
		log.Warn("booking request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", c.maxAttempts),
			zap.Duration("backoff", wait),
			zap.Error(err))
		if sleepErr := sleepCtx(ctx, wait); sleepErr != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *BookingClient) submitOnce(ctx context.Context, body []byte, req domain.BookingRequest) (*domain.BookingConfirmation, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bookings", bytes.NewReader(body))
		if err != nil {
			return nil, apperrors.NewInternalError("build booking request", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
		if req.IdempotencyKey != "" {
			httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
		}
		if req.AuthToken != "" {
			httpReq.Header.Set("Authorization", "Bearer "+req.AuthToken)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, transportError(ctx, "booking api request", err)
		}
		defer resp.Body.Close()

		respBody := readBody(resp)
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, statusError("booking api", resp.StatusCode, respBody)
		}
		return decodeConfirmation(respBody)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return result.(*domain.BookingConfirmation), nil
}

func decodeConfirmation(body []byte) (*domain.BookingConfirmation, error) {
	m := unwrapData(decodeObject(body))
	conf := &domain.BookingConfirmation{
		BookingID:   firstString(m, "bookingId", "booking_id", "id", "_id"),
		BookingCode: firstString(m, "bookingCode", "booking_code", "code", "reference"),
		Status:      firstString(m, "status"),
	}
	if conf.BookingID == "" && conf.BookingCode == "" {
		return nil, apperrors.NewInternalError("booking api response has no booking reference", nil)
	}
	if conf.BookingCode == "" {
		conf.BookingCode = conf.BookingID
	}
	if conf.Status == "" {
		conf.Status = "confirmed"
	}
	return conf, nil
}
