package core

import "context"

// Tool is a named capability an agent can invoke.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input any) (any, error)
}
