// Package delivery defines the contract shared by every inbound transport.
package delivery

import "context"

// Delivery is a long-running inbound transport (HTTP server, worker, ...).
type Delivery interface {
	Serve(ctx context.Context) error
}
