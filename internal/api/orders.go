package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cafekit/ordersync/internal/model"
)

// GetOrdersOptions controls a GetOrders call.
type GetOrdersOptions struct {
	// IfModifiedSince is the freshness token from a previous fetch.
	// When non-empty it is sent as If-Modified-Since so the server
	// may answer 304 with no body. Leave empty to force a full body.
	IfModifiedSince string
}

// OrdersResult is the outcome of a GetOrders call.
type OrdersResult struct {
	// Orders is the full order set. Nil when NotModified is true.
	Orders []model.OrderRecord

	// LastModified is the freshness token from the response, if the
	// server sent one. Empty on 304.
	LastModified string

	// NotModified is true when the server answered 304; the caller's
	// cached state is still current.
	NotModified bool
}

// GetOrders fetches the active order set, conditionally when a
// freshness token is supplied.
func (c *Client) GetOrders(ctx context.Context, opts GetOrdersOptions) (*OrdersResult, error) {
	header := http.Header{}
	if opts.IfModifiedSince != "" {
		header.Set("If-Modified-Since", opts.IfModifiedSince)
	}

	resp, err := c.doWithRetry(ctx, http.MethodGet, "/orders", header, nil)
	if err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}

	if resp.StatusCode == http.StatusNotModified {
		return &OrdersResult{NotModified: true}, nil
	}

	var orders []model.OrderRecord
	if err := json.Unmarshal(resp.Body, &orders); err != nil {
		return nil, fmt.Errorf("unmarshal orders: %w", err)
	}

	return &OrdersResult{
		Orders:       orders,
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}
