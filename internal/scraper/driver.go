package scraper

import (
	"context"
	"time"

	"github.com/quickshop-id/quickshop/internal/browser"
)

// Driver is the subset of a browser session the scraper needs.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	ScrollBy(ctx context.Context, dy int) error
	Find(ctx context.Context, loc browser.Locator) browser.Probe
	Click(ctx context.Context, loc browser.Locator) browser.Probe
	WaitFor(ctx context.Context, loc browser.Locator, timeout time.Duration) bool
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Opener starts a Driver. Implementations return a *types.DriverError when
// the browser cannot be provisioned.
type Opener interface {
	Open(ctx context.Context, headless bool) (Driver, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, headless bool) (Driver, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, headless bool) (Driver, error) {
	return f(ctx, headless)
}

// BrowserOpener opens real rod sessions through m.
func BrowserOpener(m *browser.Manager) Opener {
	return OpenerFunc(func(ctx context.Context, headless bool) (Driver, error) {
		s, err := m.Open(ctx, headless)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
