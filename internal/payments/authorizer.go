// Package payments defines the external payment-authorization collaborator.
// Authorization is interactive on the client side; this engine only sees the
// resolution. A declined or cancelled authorization aborts the calling
// billing operation with no state mutation, and no retry semantics are
// defined here.
package payments

import "context"

// Authorizer resolves a charge to approved or declined. isRecurring flags
// subscription charges as opposed to one-off lead/feature purchases.
type Authorizer interface {
	Authorize(ctx context.Context, amount float64, description string, isRecurring bool) (bool, error)
}

// SandboxAuthorizer approves every non-negative amount. It stands in for
// the real gateway in development and demos; zero-amount charges (a fully
// credited upgrade) are approved without a gateway round trip either way.
type SandboxAuthorizer struct{}

func NewSandboxAuthorizer() *SandboxAuthorizer {
	return &SandboxAuthorizer{}
}

func (a *SandboxAuthorizer) Authorize(_ context.Context, amount float64, _ string, _ bool) (bool, error) {
	return amount >= 0, nil
}
