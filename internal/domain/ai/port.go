package ai

import "context"

type Client interface {
	Review(ctx context.Context, resultJSON string) (string, error)
}
