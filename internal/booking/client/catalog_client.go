package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
)

// CatalogClient fetches bookable items. Items are cached for a short TTL
// because a wizard re-reads its item on every restore.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	cache      *cache.Cache
	logger     *zap.Logger
	timeout    time.Duration
}

func NewCatalogClient(baseURL string, timeout, ttl time.Duration, logger *zap.Logger) *CatalogClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &CatalogClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		breaker:    newBreaker("catalog-api", logger),
		cache:      cache.New(ttl, 2*ttl),
		logger:     logger,
		timeout:    timeout,
	}
}

func cacheKey(service domain.ServiceType, id string) string {
	return string(service) + "/" + id
}

func (c *CatalogClient) GetItem(ctx context.Context, service domain.ServiceType, id string) (*domain.CatalogItem, error) {
	if !service.IsValid() {
		return nil, apperrors.NewValidationError("unknown service type", apperrors.ValidationDetail{
			Field:   "serviceType",
			Message: "must be one of tour, hotel, flight",
		})
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("item id is required", apperrors.ValidationDetail{Field: "itemId", Message: "is required"})
	}

	key := cacheKey(service, id)
	if cached, ok := c.cache.Get(key); ok {
		item := cached.(domain.CatalogItem)
		return &item, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/" + string(service) + "s/" + url.PathEscape(id)
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, apperrors.NewInternalError("build catalog request", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, transportError(ctx, "catalog request", err)
		}
		defer resp.Body.Close()

		body := readBody(resp)
		if resp.StatusCode == http.StatusNotFound {
			return nil, apperrors.NewNotFoundError(string(service) + " " + id + " not found")
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, statusError("catalog api", resp.StatusCode, body)
		}
		return decodeItem(body, service, id)
	})
	if err != nil {
		return nil, breakerError(err)
	}

	item := result.(domain.CatalogItem)
	c.cache.SetDefault(key, item)
	c.logger.Debug("catalog item fetched", zap.String("key", key), zap.Int("units", len(item.Units)))
	return &item, nil
}

// Invalidate drops a cached item, e.g. after a submission conflict.
func (c *CatalogClient) Invalidate(service domain.ServiceType, id string) {
	c.cache.Delete(cacheKey(service, id))
}

func decodeItem(body []byte, service domain.ServiceType, id string) (domain.CatalogItem, error) {
	var envelope struct {
		Data *domain.CatalogItem `json:"data"`
	}
	var item domain.CatalogItem
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		item = *envelope.Data
	} else if err := json.Unmarshal(body, &item); err != nil {
		return domain.CatalogItem{}, apperrors.NewInternalError("decode catalog item", err)
	}

	if item.ID == "" {
		item.ID = id
	}
	if item.ServiceType == "" {
		item.ServiceType = service
	}
	if item.ServiceType != service {
		return domain.CatalogItem{}, apperrors.NewInternalError("catalog returned a "+string(item.ServiceType)+" for a "+string(service)+" lookup", nil)
	}
	return item, nil
}
