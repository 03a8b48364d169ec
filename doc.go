// Package core is the authenticated request pipeline shared by the Coinbase
// Go SDKs:
//
//   - Credentials sign every request with HMAC-SHA256 over
//     timestamp + method + path + body
//   - A request builder that encodes read parameters as a query string and
//     write parameters as a JSON body
//   - A transport that retries transport failures, and optionally chosen
//     status codes, with jittered exponential backoff
//   - A resolver that decodes expected responses and classifies the rest as
//     *ServiceError or *HTTPError
//
// Every error returned by a Client is one of *ClientError, *TransportError,
// *HTTPError or *ServiceError; KindOf tells them apart.
//
// Typical usage:
//
//	creds, err := core.NewCredentials(accessKey, passphrase, signingKey)
//	if err != nil {
//	    return err
//	}
//	client, err := core.New("https://api.exchange.coinbase.com", creds,
//	    core.WithMaxRetries(3),
//	    core.WithRetryableStatusCodes(429, 503),
//	)
//	if err != nil {
//	    return err
//	}
//	product, err := core.Call[Product](ctx, client, core.Request{
//	    Method: http.MethodGet,
//	    Path:   "/products/BTC-USD",
//	})
//
// The library avoids opinionated logging: provide a Logger (any *slog.Logger
// works) and enable debug output with WithDebug for insight without noise.
package core
