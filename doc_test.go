package core_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	core "github.com/coinbase-samples/core-go"
)

func Example() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"iso":"2023-11-14T22:13:20Z","epoch":1700000000}`))
	}))
	defer server.Close()

	creds, err := core.NewCredentials("key", "passphrase", "c2VjcmV0LWtleQ==")
	if err != nil {
		panic(err)
	}
	client, err := core.New(server.URL, creds)
	if err != nil {
		panic(err)
	}

	type serverTime struct {
		ISO   string `json:"iso"`
		Epoch int64  `json:"epoch"`
	}

	got, err := core.Call[serverTime](context.Background(), client, core.Request{Path: "/time"})
	if err != nil {
		panic(err)
	}
	fmt.Println(got.ISO, got.Epoch)
	// Output: 2023-11-14T22:13:20Z 1700000000
}

func ExampleEncodeQuery() {
	type filter struct {
		Limit int      `json:"limit"`
		IDs   []string `json:"ids"`
	}

	query, _ := core.EncodeQuery(filter{Limit: 5, IDs: []string{"a", "b"}})
	fmt.Println(query)
	// Output: limit=5&ids=a&ids=b
}

func ExampleKindOf() {
	err := &core.ServiceError{StatusCode: 404, Message: "not found"}

	fmt.Println(core.KindOf(err), core.IsTransient(err))
	// Output: service false
}
