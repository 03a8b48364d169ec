package exchange

import (
	"context"
	"net/http"
	"time"

	core "github.com/coinbase-samples/core-go"
	"github.com/shopspring/decimal"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderType selects how an order is matched.
type OrderType string

const (
	TypeLimit  OrderType = "limit"
	TypeMarket OrderType = "market"
	TypeStop   OrderType = "stop"
)

// Valid reports whether s is a known side.
func (s OrderSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	switch t {
	case TypeLimit, TypeMarket, TypeStop:
		return true
	}
	return false
}

// Order is an order as reported by the exchange.
type Order struct {
	ID            string           `json:"id"`
	ProductID     string           `json:"product_id"`
	Side          OrderSide        `json:"side"`
	Type          OrderType        `json:"type"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Size          *decimal.Decimal `json:"size,omitempty"`
	Funds         *decimal.Decimal `json:"funds,omitempty"`
	FilledSize    decimal.Decimal  `json:"filled_size"`
	ExecutedValue decimal.Decimal  `json:"executed_value"`
	Status        string           `json:"status"`
	Settled       bool             `json:"settled"`
	CreatedAt     time.Time        `json:"created_at"`
}

// CreateOrderRequest is the body of CreateOrder. Nil fields are left out of
// the request.
type CreateOrderRequest struct {
	ProductID   string           `json:"product_id"`
	Side        OrderSide        `json:"side"`
	Type        OrderType        `json:"type,omitempty"`
	Size        *decimal.Decimal `json:"size,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Funds       *decimal.Decimal `json:"funds,omitempty"`
	ClientOID   string           `json:"client_oid,omitempty"`
	TimeInForce string           `json:"time_in_force,omitempty"`
	PostOnly    *bool            `json:"post_only,omitempty"`
}

// ListOrdersRequest filters ListOrders.
type ListOrdersRequest struct {
	ProductID string     `json:"product_id,omitempty"`
	Status    []string   `json:"status,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	After     *time.Time `json:"after,omitempty"`
}

// CreateOrder places an order.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest, opts ...core.CallOption) (*Order, error) {
	if req.ProductID == "" || !req.Side.Valid() {
		return nil, &core.ClientError{Message: "product id and a valid side are required", Cause: core.ErrInvalidRequest}
	}
	if req.Type != "" && !req.Type.Valid() {
		return nil, &core.ClientError{Message: "unknown order type " + string(req.Type), Cause: core.ErrInvalidRequest}
	}

	return core.ServiceCall[*Order](ctx, s.base, core.Request{
		Method: http.MethodPost,
		Path:   "/orders",
		Params: req,
	}, nil, opts...)
}

// GetOrder returns one order by id.
func (s *Service) GetOrder(ctx context.Context, orderID string, opts ...core.CallOption) (*Order, error) {
	return core.ServiceCall[*Order](ctx, s.base, get("/orders/{order_id}", nil),
		map[string]string{"order_id": orderID}, opts...)
}

// ListOrders returns orders matching req.
func (s *Service) ListOrders(ctx context.Context, req *ListOrdersRequest, opts ...core.CallOption) ([]Order, error) {
	var params any
	if req != nil {
		params = req
	}
	return core.ServiceCall[[]Order](ctx, s.base, get("/orders", params), nil, opts...)
}

// CancelOrder cancels one order and returns the id the exchange confirmed.
func (s *Service) CancelOrder(ctx context.Context, orderID string, opts ...core.CallOption) (string, error) {
	return core.ServiceCall[string](ctx, s.base, core.Request{
		Method: http.MethodDelete,
		Path:   "/orders/{order_id}",
	}, map[string]string{"order_id": orderID}, opts...)
}
