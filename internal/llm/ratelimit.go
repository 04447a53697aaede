package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// rateLimitedClient spaces requests through a token bucket.
type rateLimitedClient struct {
	base    Client
	limiter *rate.Limiter
}

// WrapWithRateLimit wraps client with a limiter when a positive limit is
// supplied. A burst less than 1 is coerced to 1.
func WrapWithRateLimit(client Client, limit rate.Limit, burst int) Client {
	if limit <= 0 {
		return client
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedClient{base: client, limiter: rate.NewLimiter(limit, burst)}
}

func (c *rateLimitedClient) Chat(ctx context.Context, req Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for request slot: %w", err)
	}
	return c.base.Chat(ctx, req)
}
