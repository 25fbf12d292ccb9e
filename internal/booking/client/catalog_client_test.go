package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
)

const hotelJSON = `{
  "data": {
    "id": "h-1",
    "serviceType": "hotel",
    "name": "Riverside Hotel",
    "units": [
      {"id": "r1", "name": "101", "kind": "room", "capacity": 2, "price": 500000, "available": true}
    ],
    "promotion": {"code": "SUMMER", "kind": "flat", "value": 200000},
    "available": true
  }
}`

func TestGetItem_DecodesAndCaches(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/hotels/h-1", r.URL.Path)
		_, _ = w.Write([]byte(hotelJSON))
	}))
	defer srv.Close()
	c := NewCatalogClient(srv.URL, time.Second, time.Minute, zap.NewNop())

	item, err := c.GetItem(context.Background(), domain.ServiceHotel, "h-1")
	require.NoError(t, err)
	again, err := c.GetItem(context.Background(), domain.ServiceHotel, "h-1")
	require.NoError(t, err)

	assert.Equal(t, "Riverside Hotel", item.Name)
	require.Len(t, item.Units, 1)
	assert.Equal(t, int64(500000), item.Units[0].Price)
	require.NotNil(t, item.Promotion)
	assert.Equal(t, domain.PromotionFlat, item.Promotion.Kind)
	assert.Equal(t, item, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	c.Invalidate(domain.ServiceHotel, "h-1")
	_, err = c.GetItem(context.Background(), domain.ServiceHotel, "h-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetItem_BareObjectGetsDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Saigon to Hanoi","basePrice":1000000,"available":true}`))
	}))
	defer srv.Close()

	item, err := NewCatalogClient(srv.URL, time.Second, time.Minute, zap.NewNop()).GetItem(context.Background(), domain.ServiceFlight, "vn-213")

	require.NoError(t, err)
	assert.Equal(t, "vn-213", item.ID)
	assert.Equal(t, domain.ServiceFlight, item.ServiceType)
}

func TestGetItem_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tours/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()
	c := NewCatalogClient(srv.URL, time.Second, time.Minute, zap.NewNop())

	_, err := c.GetItem(context.Background(), domain.ServiceTour, "missing")
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)

	_, err = c.GetItem(context.Background(), domain.ServiceTour, "t-1")
	_, ok = apperrors.IsTransientError(err)
	assert.True(t, ok)

	_, err = c.GetItem(context.Background(), "cruise", "c-1")
	_, ok = apperrors.IsValidationError(err)
	assert.True(t, ok)
}
