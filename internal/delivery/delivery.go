// Package delivery defines the contract every transport (HTTP server,
// background worker) fulfills so main can start them uniformly.
package delivery

import "context"

// Delivery is a long-running entry point of the application. Serve blocks
// until the delivery stops or fails; graceful shutdown is wired through the
// Fx lifecycle.
type Delivery interface {
	Serve(ctx context.Context) error
}
