package exchange

import (
	"context"

	core "github.com/coinbase-samples/core-go"
	"github.com/shopspring/decimal"
)

// Account is a balance in one currency.
type Account struct {
	ID             string          `json:"id"`
	Currency       string          `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	Hold           decimal.Decimal `json:"hold"`
	Available      decimal.Decimal `json:"available"`
	ProfileID      string          `json:"profile_id"`
	TradingEnabled bool            `json:"trading_enabled"`
}

// ListAccounts returns every account of the profile.
func (s *Service) ListAccounts(ctx context.Context, opts ...core.CallOption) ([]Account, error) {
	return core.ServiceCall[[]Account](ctx, s.base, get("/accounts", nil), nil, opts...)
}
