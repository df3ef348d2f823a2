package sheets

import (
	"context"
	"sync"
)

// Provider builds the Client on first use and reuses it afterwards. A build
// failure is remembered until the process restarts.
type Provider struct {
	get func() (*Client, error)
}

// NewProvider returns a Provider for cfg.
func NewProvider(cfg Config) *Provider {
	return newProvider(func() (*Client, error) {
		return NewClient(context.Background(), cfg)
	})
}

func newProvider(build func() (*Client, error)) *Provider {
	return &Provider{get: sync.OnceValues(build)}
}

// Client returns the shared client.
func (p *Provider) Client() (*Client, error) {
	return p.get()
}

// AppendRow appends values using the shared client.
func (p *Provider) AppendRow(ctx context.Context, values []any) error {
	c, err := p.get()
	if err != nil {
		return err
	}
	return c.AppendRow(ctx, values)
}
