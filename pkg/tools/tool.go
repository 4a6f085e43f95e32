// Package tools defines the contract shared by the external lookups the
// concierge can route a query to.
package tools

import (
	"context"

	"wine-concierge-be/pkg/apperr"
)

// Tool turns a text input into a text result. Failures come back as typed
// apperr errors so callers can inspect them; RunText flattens them.
type Tool interface {
	Name() string
	Invoke(ctx context.Context, input string) (string, error)
}

// RunText invokes t and always returns displayable text.
func RunText(ctx context.Context, t Tool, input string) string {
	out, err := t.Invoke(ctx, input)
	if err != nil {
		return apperr.Render(err)
	}
	return out
}
