package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	core "github.com/coinbase-samples/core-go"
	"github.com/coinbase-samples/core-go/exchange"
)

// maxConcurrentLookups bounds parallel requests of "orders get".
const maxConcurrentLookups = 4

func productsCmd(env *Env, g *globals) *cobra.Command {
	req := &exchange.ListProductsRequest{}

	cmd := &cobra.Command{
		Use:   "products [product-id]",
		Short: "List products, or show one product",
		Example: `  coinbase products --limit 5
  coinbase products BTC-USD`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, env, g, func(ctx context.Context, s *session) error {
				if len(args) == 1 {
					product, err := s.exchange.GetProduct(ctx, args[0])
					if err != nil {
						return err
					}
					return s.out.json(product)
				}

				products, err := s.exchange.ListProducts(ctx, req)
				if err != nil {
					return err
				}
				return s.out.json(products)
			})
		},
	}

	cmd.Flags().IntVar(&req.Limit, "limit", 0, "maximum number of products")
	cmd.Flags().StringSliceVar(&req.IDs, "id", nil, "only these product ids (repeatable)")

	return cmd
}

func accountsCmd(env *Env, g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List account balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, env, g, func(ctx context.Context, s *session) error {
				accounts, err := s.exchange.ListAccounts(ctx)
				if err != nil {
					return err
				}
				return s.out.json(accounts)
			})
		},
	}
}

func ordersCmd(env *Env, g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect, place and cancel orders",
	}

	cmd.AddCommand(ordersGetCmd(env, g))
	cmd.AddCommand(ordersCreateCmd(env, g))
	cmd.AddCommand(ordersCancelCmd(env, g))

	return cmd
}

func ordersGetCmd(env *Env, g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "get <order-id>...",
		Short: "Show one or more orders, fetched concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, env, g, func(ctx context.Context, s *session) error {
				orders, err := fetchOrders(ctx, s.exchange, args)
				if err != nil {
					return err
				}
				if len(orders) == 1 {
					return s.out.json(orders[0])
				}
				return s.out.json(orders)
			})
		},
	}
}

// fetchOrders looks up ids in parallel through one shared client and keeps
// the input order. Concurrent lookups of a repeated id share one request.
// The first failure cancels the remaining lookups.
func fetchOrders(ctx context.Context, svc *exchange.Service, ids []string) ([]*exchange.Order, error) {
	orders := make([]*exchange.Order, len(ids))

	var flights singleflight.Group
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentLookups)

	for i, id := range ids {
		group.Go(func() error {
			v, err, _ := flights.Do(id, func() (any, error) {
				return svc.GetOrder(ctx, id)
			})
			if err != nil {
				return fmt.Errorf("order %s: %w", id, err)
			}
			orders[i] = v.(*exchange.Order)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return orders, nil
}

func ordersCreateCmd(env *Env, g *globals) *cobra.Command {
	var productID, side, orderType, size, price, clientOID string

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Place an order",
		Example: `  coinbase orders create --product BTC-USD --side buy --size 0.01 --price 30000`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildOrderRequest(productID, side, orderType, size, price, clientOID)
			if err != nil {
				return err
			}

			return run(cmd, env, g, func(ctx context.Context, s *session) error {
				order, err := s.exchange.CreateOrder(ctx, req)
				if err != nil {
					return err
				}
				s.out.success("order %s %s", order.ID, order.Status)
				return s.out.json(order)
			})
		},
	}

	cmd.Flags().StringVar(&productID, "product", "", "product id, e.g. BTC-USD")
	cmd.Flags().StringVar(&side, "side", "", "buy or sell")
	cmd.Flags().StringVar(&orderType, "type", "", "limit, market or stop (default limit when --price is set)")
	cmd.Flags().StringVar(&size, "size", "", "order size in base currency")
	cmd.Flags().StringVar(&price, "price", "", "limit price in quote currency")
	cmd.Flags().StringVar(&clientOID, "client-oid", "", "client order id")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("side")
	_ = cmd.MarkFlagRequired("size")

	return cmd
}

// buildOrderRequest validates the create flags and parses the amounts.
func buildOrderRequest(productID, side, orderType, size, price, clientOID string) (exchange.CreateOrderRequest, error) {
	req := exchange.CreateOrderRequest{
		ProductID: productID,
		Side:      exchange.OrderSide(strings.ToLower(side)),
		Type:      exchange.OrderType(strings.ToLower(orderType)),
		ClientOID: clientOID,
	}
	if !req.Side.Valid() {
		return req, fmt.Errorf("invalid argument --side %q: want buy or sell", side)
	}

	sz, err := decimal.NewFromString(size)
	if err != nil {
		return req, fmt.Errorf("invalid argument --size %q: %w", size, err)
	}
	if !sz.IsPositive() {
		return req, fmt.Errorf("invalid argument --size %q: must be positive", size)
	}
	req.Size = &sz

	if price != "" {
		p, err := decimal.NewFromString(price)
		if err != nil {
			return req, fmt.Errorf("invalid argument --price %q: %w", price, err)
		}
		req.Price = &p
		if req.Type == "" {
			req.Type = exchange.TypeLimit
		}
	} else if req.Type == "" {
		req.Type = exchange.TypeMarket
	}

	if !req.Type.Valid() {
		return req, fmt.Errorf("invalid argument --type %q", orderType)
	}
	return req, nil
}

func ordersCancelCmd(env *Env, g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, env, g, func(ctx context.Context, s *session) error {
				id, err := s.exchange.CancelOrder(ctx, args[0])
				if err != nil {
					return err
				}
				s.out.success("cancelled %s", id)
				return nil
			})
		},
	}
}

func requestCmd(env *Env, g *globals) *cobra.Command {
	var params []string
	var body string
	var expected []int

	cmd := &cobra.Command{
		Use:   "request <method> <path>",
		Short: "Send an arbitrary signed request and print the response body",
		Example: `  coinbase request GET /products --param limit=5 --param ids=BTC-USD --param ids=ETH-USD
  coinbase request POST /orders --body '{"product_id":"BTC-USD","side":"buy","size":"0.01"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRawRequest(args[0], args[1], params, body)
			if err != nil {
				return err
			}

			return run(cmd, env, g, func(ctx context.Context, s *session) error {
				var out json.RawMessage
				opts := []core.CallOption{}
				if len(expected) > 0 {
					opts = append(opts, core.WithExpectedStatus(expected...))
				}
				if err := s.client.Do(ctx, req, &out, opts...); err != nil {
					return err
				}
				if len(out) == 0 {
					return nil
				}
				return s.out.json(out)
			})
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "query or body parameter key=value (repeatable)")
	cmd.Flags().StringVar(&body, "body", "", "raw JSON body; overrides --param for methods with a body")
	cmd.Flags().IntSliceVar(&expected, "expect", nil, "status codes treated as success (default 200)")

	return cmd
}

// buildRawRequest turns CLI arguments into a core.Request. Repeated keys
// become repeated query pairs or a JSON array.
func buildRawRequest(method, path string, params []string, body string) (core.Request, error) {
	req := core.Request{Method: strings.ToUpper(method), Path: path}

	if body != "" {
		var payload json.RawMessage
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			return req, fmt.Errorf("invalid argument --body: %w", err)
		}
		req.Params = payload
		req.InBody = true
		return req, nil
	}

	if len(params) == 0 {
		return req, nil
	}

	values := url.Values{}
	for _, p := range params {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return req, fmt.Errorf("invalid argument --param %q: want key=value", p)
		}
		values.Add(key, value)
	}

	switch req.Method {
	case "POST", "PUT", "PATCH":
		payload := make(map[string]any, len(values))
		for key, vs := range values {
			if len(vs) == 1 {
				payload[key] = vs[0]
			} else {
				payload[key] = vs
			}
		}
		req.Params = payload
	default:
		req.Params = values
	}
	return req, nil
}

func versionCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(env.Stdout, core.ReadBuildInfo())
			return err
		},
	}
}
