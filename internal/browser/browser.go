// Package browser drives a stealth Chromium session through go-rod.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/quickshop-id/quickshop/internal/config"
	"github.com/quickshop-id/quickshop/internal/types"
)

// Manager launches browser sessions.
type Manager struct {
	cfg        config.BrowserConfig
	stealthCfg *StealthConfig
	logger     *slog.Logger
}

// NewManager creates a Manager from browser settings.
func NewManager(cfg config.BrowserConfig, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:        cfg,
		stealthCfg: DefaultStealthConfig(cfg.Locale, cfg.Timezone),
		logger:     logger.With("component", "browser"),
	}
}

// Open launches Chromium and returns a session with a single stealth page.
// The caller owns the session and must Close it.
func (m *Manager) Open(ctx context.Context, headless bool) (*Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Set("lang", m.stealthCfg.Language)

	if m.cfg.Bin != "" {
		l = l.Bin(m.cfg.Bin)
	}
	if m.cfg.Proxy != "" {
		l = l.Proxy(m.cfg.Proxy)
	}
	if m.cfg.UserDataDir != "" {
		l = l.UserDataDir(m.cfg.UserDataDir)
	}
	if m.cfg.WindowWidth > 0 && m.cfg.WindowHeight > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", m.cfg.WindowWidth, m.cfg.WindowHeight))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, &types.DriverError{Op: "launch", Err: err}
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, &types.DriverError{Op: "connect", Err: err}
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, &types.DriverError{Op: "page", Err: fmt.Errorf("stealth page: %w", err)}
	}

	s := &Session{
		launcher: l,
		browser:  b,
		page:     page,
		cfg:      m.cfg,
		logger:   m.logger,
	}
	s.prepare(m.stealthCfg)

	m.logger.Info("browser session opened", "headless", headless, "proxy", m.cfg.Proxy != "")
	return s, nil
}

// Session is one browser with one page. It is not safe for concurrent use.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cfg      config.BrowserConfig
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// prepare applies identity overrides. Failures are logged and ignored.
func (s *Session) prepare(sc *StealthConfig) {
	ua := s.cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      ua,
		AcceptLanguage: sc.Language + "," + strings.SplitN(sc.Language, "-", 2)[0] + ";q=0.9",
		Platform:       sc.Platform,
	})
	if err != nil {
		s.logger.Warn("failed to set user agent", "error", err)
	}

	if _, err := s.page.EvalOnNewDocument(sc.StealthJS()); err != nil {
		s.logger.Warn("failed to inject stealth script", "error", err)
	}

	if sc.Timezone != "" {
		if err := (proto.EmulationSetTimezoneOverride{TimezoneID: sc.Timezone}).Call(s.page); err != nil {
			s.logger.Debug("timezone override rejected", "timezone", sc.Timezone, "error", err)
		}
	}

	if s.cfg.WindowWidth > 0 && s.cfg.WindowHeight > 0 {
		_ = s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             s.cfg.WindowWidth,
			Height:            s.cfg.WindowHeight,
			DeviceScaleFactor: 1,
		})
	}
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	timeout := s.cfg.NavigateTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	p := s.page.Context(ctx).Timeout(timeout)
	if err := p.Navigate(url); err != nil {
		return &types.DriverError{Op: "navigate", URL: url, Err: err}
	}
	if err := p.WaitLoad(); err != nil {
		return &types.DriverError{Op: "navigate", URL: url, Err: fmt.Errorf("wait load: %w", err)}
	}
	return nil
}

// ScrollBy scrolls the window vertically by dy pixels.
func (s *Session) ScrollBy(ctx context.Context, dy int) error {
	_, err := s.page.Context(ctx).Eval(`(dy) => window.scrollBy(0, dy)`, dy)
	return err
}

// Find checks whether the locator currently matches, without waiting.
func (s *Session) Find(ctx context.Context, loc Locator) Probe {
	_, probe := s.lookup(ctx, loc)
	return probe
}

// Click finds the element and clicks it once with the left button.
func (s *Session) Click(ctx context.Context, loc Locator) Probe {
	el, probe := s.lookup(ctx, loc)
	if !probe.OK() {
		return probe
	}
	if err := el.Context(ctx).ScrollIntoView(); err != nil {
		s.logger.Debug("scroll into view failed", "locator", loc.String(), "error", err)
	}
	if err := el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return Probe{Outcome: Failed, Err: fmt.Errorf("click %s: %w", loc, err)}
	}
	return Probe{Outcome: Found}
}

// WaitFor polls until the locator matches or timeout elapses.
func (s *Session) WaitFor(ctx context.Context, loc Locator, timeout time.Duration) bool {
	p := s.page.Context(ctx).Timeout(timeout)
	var err error
	if loc.IsXPath() {
		_, err = p.ElementX(loc.Selector)
	} else {
		_, err = p.Element(loc.Selector)
	}
	return err == nil
}

// HTML returns the rendered markup of the whole document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("read markup: %w", err)
	}
	return html, nil
}

// Close shuts down the page, the browser, and the Chromium process. Only
// the first call has any effect.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.launcher != nil {
			s.launcher.Kill()
			s.launcher.Cleanup()
		}
		s.closeErr = errors.Join(errs...)
		s.logger.Info("browser session closed")
	})
	return s.closeErr
}

func (s *Session) lookup(ctx context.Context, loc Locator) (*rod.Element, Probe) {
	p := s.page.Context(ctx)

	var (
		has bool
		el  *rod.Element
		err error
	)
	if loc.IsXPath() {
		has, el, err = p.HasX(loc.Selector)
	} else {
		has, el, err = p.Has(loc.Selector)
	}
	if err != nil {
		return nil, Probe{Outcome: Failed, Err: fmt.Errorf("find %s: %w", loc.Selector, err)}
	}
	if !has {
		return nil, Probe{Outcome: NotFound}
	}

	if loc.Child != "" {
		has, el, err = el.Has(loc.Child)
		if err != nil {
			return nil, Probe{Outcome: Failed, Err: fmt.Errorf("find %s: %w", loc, err)}
		}
		if !has {
			return nil, Probe{Outcome: NotFound}
		}
	}
	return el, Probe{Outcome: Found}
}
