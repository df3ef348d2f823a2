package classifier

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const loadTimeout = 30 * time.Second

// Provider loads a Classifier once and hands out the same instance for the
// rest of the process lifetime. A load failure is cached as well.
type Provider struct {
	get func() (Classifier, error)
}

// NewProvider wraps load so that it runs at most once.
func NewProvider(load func() (Classifier, error)) *Provider {
	return &Provider{get: sync.OnceValues(load)}
}

// NewHTTPProvider returns a Provider that builds an HTTP Client from cfg and
// pings it on first use.
func NewHTTPProvider(cfg Config) *Provider {
	return NewProvider(func() (Classifier, error) {
		client := NewClient(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("loading classifier: %w", err)
		}
		return client, nil
	})
}

// Get returns the loaded classifier.
func (p *Provider) Get() (Classifier, error) {
	return p.get()
}

// Classify loads the classifier if needed and classifies text.
func (p *Provider) Classify(ctx context.Context, text string) (Prediction, error) {
	c, err := p.get()
	if err != nil {
		return Prediction{}, err
	}
	return c.Classify(ctx, text)
}

var _ Classifier = (*Provider)(nil)
