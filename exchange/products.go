package exchange

import (
	"context"

	core "github.com/coinbase-samples/core-go"
	"github.com/shopspring/decimal"
)

// Product is a tradable pair.
type Product struct {
	ID              string          `json:"id"`
	BaseCurrency    string          `json:"base_currency"`
	QuoteCurrency   string          `json:"quote_currency"`
	QuoteIncrement  decimal.Decimal `json:"quote_increment"`
	BaseIncrement   decimal.Decimal `json:"base_increment"`
	DisplayName     string          `json:"display_name"`
	MinMarketFunds  decimal.Decimal `json:"min_market_funds"`
	Status          string          `json:"status"`
	TradingDisabled bool            `json:"trading_disabled"`
}

// ListProductsRequest filters ListProducts.
type ListProductsRequest struct {
	Limit int      `json:"limit,omitempty"`
	IDs   []string `json:"ids,omitempty"`
	Type  string   `json:"type,omitempty"`
}

// ListProducts returns the available products.
func (s *Service) ListProducts(ctx context.Context, req *ListProductsRequest, opts ...core.CallOption) ([]Product, error) {
	var params any
	if req != nil {
		params = req
	}
	return core.ServiceCall[[]Product](ctx, s.base, get("/products", params), nil, opts...)
}

// GetProduct returns one product by id.
func (s *Service) GetProduct(ctx context.Context, productID string, opts ...core.CallOption) (*Product, error) {
	return core.ServiceCall[*Product](ctx, s.base, get("/products/{product_id}", nil),
		map[string]string{"product_id": productID}, opts...)
}
