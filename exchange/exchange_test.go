package exchange

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	core "github.com/coinbase-samples/core-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	uri    string
	body   string
	header http.Header
}

func newTestService(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Service, *[]recordedRequest) {
	t.Helper()

	var recorded []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		recorded = append(recorded, recordedRequest{method: r.Method, uri: r.URL.RequestURI(), body: string(body), header: r.Header.Clone()})
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	creds, err := core.NewCredentials("key", "pass", "c2VjcmV0LWtleQ==")
	require.NoError(t, err)
	client, err := core.New(server.URL, creds, core.WithRetryDelays(time.Millisecond, time.Millisecond))
	require.NoError(t, err)

	return NewService(client), &recorded
}

func respond(body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestListProducts(t *testing.T) {
	svc, recorded := newTestService(t, respond(`[
		{"id":"BTC-USD","base_currency":"BTC","quote_currency":"USD","quote_increment":"0.01","base_increment":"0.00000001","min_market_funds":"1","status":"online"},
		{"id":"ETH-USD","base_currency":"ETH","quote_currency":"USD","quote_increment":"0.01","base_increment":"0.00000001","min_market_funds":"1","status":"online","trading_disabled":true}
	]`))

	products, err := svc.ListProducts(context.Background(), &ListProductsRequest{Limit: 5, IDs: []string{"BTC-USD", "ETH-USD"}})
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "BTC-USD", products[0].ID)
	assert.True(t, products[0].BaseIncrement.Equal(decimal.RequireFromString("0.00000001")))
	assert.True(t, products[1].TradingDisabled)

	require.Len(t, *recorded, 1)
	assert.Equal(t, "GET", (*recorded)[0].method)
	assert.Equal(t, "/products?limit=5&ids=BTC-USD&ids=ETH-USD", (*recorded)[0].uri)
	assert.NotEmpty(t, (*recorded)[0].header.Get(core.HeaderSignature))
}

func TestListProductsWithoutFilter(t *testing.T) {
	svc, recorded := newTestService(t, respond(`[]`))

	products, err := svc.ListProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, "/products", (*recorded)[0].uri)
}

func TestGetProduct(t *testing.T) {
	svc, recorded := newTestService(t, respond(`{"id":"BTC-USD","quote_increment":"0.01"}`))

	product, err := svc.GetProduct(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.Equal(t, "BTC-USD", product.ID)
	assert.Equal(t, "/products/BTC-USD", (*recorded)[0].uri)
}

func TestGetProductNotFound(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"NotFound"}`))
	})

	product, err := svc.GetProduct(context.Background(), "NOPE-USD")
	assert.Nil(t, product)

	var serviceErr *core.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "NotFound", serviceErr.Message)
}

func TestCreateOrder(t *testing.T) {
	svc, recorded := newTestService(t, respond(`{"id":"o-1","product_id":"BTC-USD","side":"buy","type":"limit","price":"100.50","size":"0.01","filled_size":"0","executed_value":"0","status":"pending","created_at":"2023-11-14T22:13:20Z"}`))

	price := decimal.RequireFromString("100.50")
	size := decimal.RequireFromString("0.01")
	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		ProductID: "BTC-USD",
		Side:      SideBuy,
		Type:      TypeLimit,
		Price:     &price,
		Size:      &size,
	})
	require.NoError(t, err)

	assert.Equal(t, "o-1", order.ID)
	assert.Equal(t, SideBuy, order.Side)
	require.NotNil(t, order.Price)
	assert.True(t, order.Price.Equal(price))
	assert.Nil(t, order.Funds)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), order.CreatedAt.UTC())

	req := (*recorded)[0]
	assert.Equal(t, "POST", req.method)
	assert.Equal(t, "/orders", req.uri)
	assert.Equal(t, "application/json", req.header.Get("Content-Type"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.body), &sent))
	assert.Equal(t, map[string]any{
		"product_id": "BTC-USD",
		"side":       "buy",
		"type":       "limit",
		"price":      "100.5",
		"size":       "0.01",
	}, sent)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, recorded := newTestService(t, respond(`{}`))

	tests := []struct {
		name string
		req  CreateOrderRequest
	}{
		{"missing product", CreateOrderRequest{Side: SideBuy}},
		{"bad side", CreateOrderRequest{ProductID: "BTC-USD", Side: "hold"}},
		{"bad type", CreateOrderRequest{ProductID: "BTC-USD", Side: SideSell, Type: "iceberg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), tt.req)
			assert.ErrorIs(t, err, core.ErrInvalidRequest)
			assert.Equal(t, core.KindClient, core.KindOf(err))
		})
	}
	assert.Empty(t, *recorded)
}

func TestListOrders(t *testing.T) {
	svc, recorded := newTestService(t, respond(`[{"id":"o-1","status":"open","filled_size":"0.5","executed_value":"50"}]`))

	orders, err := svc.ListOrders(context.Background(), &ListOrdersRequest{ProductID: "BTC-USD", Status: []string{"open", "pending"}})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, orders[0].FilledSize.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, "/orders?product_id=BTC-USD&status=open&status=pending", (*recorded)[0].uri)
}

func TestGetOrderEscapesID(t *testing.T) {
	svc, recorded := newTestService(t, respond(`{"id":"client:1"}`))

	order, err := svc.GetOrder(context.Background(), "client:1")
	require.NoError(t, err)
	assert.Equal(t, "client:1", order.ID)
	assert.Equal(t, "/orders/client:1", (*recorded)[0].uri)
}

func TestCancelOrder(t *testing.T) {
	svc, recorded := newTestService(t, respond(`"o-1"`))

	id, err := svc.CancelOrder(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, "o-1", id)
	assert.Equal(t, "DELETE", (*recorded)[0].method)
	assert.Equal(t, "/orders/o-1", (*recorded)[0].uri)
	assert.Empty(t, (*recorded)[0].body)
}

func TestListAccounts(t *testing.T) {
	svc, _ := newTestService(t, respond(`[{"id":"a-1","currency":"USD","balance":"10.00","hold":"2.5","available":"7.5","trading_enabled":true}]`))

	accounts, err := svc.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	a := accounts[0]
	assert.True(t, a.Balance.Equal(a.Hold.Add(a.Available)))
	assert.True(t, a.TradingEnabled)
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, SideBuy.Valid())
	assert.True(t, SideSell.Valid())
	assert.False(t, OrderSide("").Valid())

	for _, typ := range []OrderType{TypeLimit, TypeMarket, TypeStop} {
		assert.True(t, typ.Valid(), typ)
	}
	assert.False(t, OrderType("twap").Valid())
}
