package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

// Automation owns the browser process and the single order page. It implements Page.
type Automation struct {
	config   *Config
	log      *zap.Logger
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Page = (*Automation)(nil)

func NewAutomation(config *Config, logger *zap.Logger) *Automation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Automation{
		config:   config,
		log:      logger,
		stopChan: make(chan struct{}),
	}
}

func (a *Automation) Close() {
	a.stopOnce.Do(func() { close(a.stopChan) })

	if a.browser == nil && a.launcher == nil {
		return
	}

	fmt.Println(T("cleaning_up"))

	if a.page != nil {
		_ = a.page.Close()
	}

	if a.browser != nil {
		_ = a.browser.Close()
	}

	if a.launcher != nil {
		a.launcher.Cleanup()
	}

	fmt.Println(T("browser_destroyed"))
}

func (a *Automation) isBrowserAlive() bool {
	if a.browser == nil {
		return false
	}

	if _, err := a.browser.Version(); err != nil {
		a.log.Debug("browser version check failed", zap.Error(err))
		return false
	}

	if a.page != nil {
		if _, err := a.page.Info(); err != nil {
			a.log.Debug("page info check failed", zap.Error(err))
			return false
		}
	}

	return true
}

// watchBrowser cancels the run once the user closes the browser window.
func (a *Automation) watchBrowser(cancel context.CancelFunc) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopChan:
			return
		case <-ticker.C:
			if !a.isBrowserAlive() {
				fmt.Println(T("browser_closed"))
				cancel()
				return
			}
		}
	}
}

// Start launches the browser and opens the order page. cancel is invoked if the browser dies mid-run.
func (a *Automation) Start(ctx context.Context, cancel context.CancelFunc) error {
	fmt.Println(T("browser_launching"))

	// Leakless deadlocks on Windows: https://github.com/go-rod/rod/issues/853
	useLeakless := runtime.GOOS != "windows"

	chromePath, chromeExists := launcher.LookPath()

	a.launcher = launcher.New().
		Context(ctx).
		Leakless(useLeakless).
		Headless(a.config.Headless)

	// Must be set before Bin()
	if a.config.BrowserProfilePath != "" {
		a.launcher = a.launcher.UserDataDir(a.config.BrowserProfilePath)
		a.log.Debug("browser profile set", zap.String("path", a.config.BrowserProfilePath))
	}

	if chromeExists {
		a.launcher = a.launcher.Bin(chromePath)
		fmt.Println(T("browser_system_chrome"))
		a.log.Debug("chrome binary", zap.String("path", chromePath))
	} else {
		fmt.Println(T("browser_no_chrome"))
	}

	controlURL, err := a.launcher.Launch()
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "ProcessSingleton") || strings.Contains(errMsg, "SingletonLock") {
			return fmt.Errorf("browser profile %s is in use by another Chrome, close it and retry: %w",
				a.config.BrowserProfilePath, err)
		}
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if a.config.SlowMotionMs > 0 {
		browser = browser.SlowMotion(a.config.slowMotion())
	}
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	a.browser = browser

	if a.config.Stealth {
		a.page, err = stealth.Page(a.browser)
		if err != nil {
			return fmt.Errorf("failed to create stealth page: %w", err)
		}
		a.log.Debug("stealth mode enabled")
	} else {
		a.page, err = a.browser.Page(proto.TargetCreateTarget{})
		if err != nil {
			return fmt.Errorf("failed to create page: %w", err)
		}
	}

	if a.config.ViewportWidth > 0 && a.config.ViewportHeight > 0 {
		if err := a.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             a.config.ViewportWidth,
			Height:            a.config.ViewportHeight,
			DeviceScaleFactor: 1.0,
		}); err != nil {
			a.log.Warn("failed to set viewport", zap.Error(err))
		}
	}

	if cancel != nil {
		go a.watchBrowser(cancel)
		a.log.Debug("browser watcher started")
	}

	fmt.Println(T("browser_launched"))
	return nil
}

func (a *Automation) requirePage() error {
	if a.page == nil {
		return errors.New("browser not started")
	}
	return nil
}

// element waits up to the element timeout for selector.
func (a *Automation) element(ctx context.Context, selector string) (*rod.Element, error) {
	if err := a.requirePage(); err != nil {
		return nil, err
	}
	el, err := a.page.Context(ctx).Timeout(a.config.elementTimeout()).Element(selector)
	if err != nil {
		return nil, elementError(selector, err)
	}
	return el.CancelTimeout().Context(ctx), nil
}

func elementError(selector string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return fmt.Errorf("failed to locate %s: %w", selector, err)
}

func (a *Automation) Navigate(ctx context.Context, url string) error {
	if err := a.requirePage(); err != nil {
		return err
	}

	page := a.page.Context(ctx).Timeout(a.config.pageLoadTimeout())
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("page failed to load: %w", err)
	}
	return nil
}

func (a *Automation) Click(ctx context.Context, selector string) error {
	el, err := a.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

func (a *Automation) ClickText(ctx context.Context, selector, text string) error {
	if err := a.requirePage(); err != nil {
		return err
	}

	pattern := `^\s*` + regexp.QuoteMeta(text) + `\s*$`
	el, err := a.page.Context(ctx).Timeout(a.config.elementTimeout()).ElementR(selector, pattern)
	if err != nil {
		return elementError(fmt.Sprintf("%s %q", selector, text), err)
	}
	if err := el.CancelTimeout().Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click %s %q: %w", selector, text, err)
	}
	return nil
}

func (a *Automation) Focus(ctx context.Context, selector string) error {
	el, err := a.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Focus()
}

func (a *Automation) SelectOption(ctx context.Context, selector, text string) error {
	el, err := a.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Select([]string{text}, true, rod.SelectorTypeText); err != nil {
		return fmt.Errorf("failed to select %q in %s: %w", text, selector, err)
	}
	return nil
}

func (a *Automation) Fill(ctx context.Context, selector, value string) error {
	el, err := a.element(ctx, selector)
	if err != nil {
		return err
	}
	return fillElement(el, selector, value)
}

func (a *Automation) FillXPath(ctx context.Context, xpath, value string) error {
	if err := a.requirePage(); err != nil {
		return err
	}
	el, err := a.page.Context(ctx).Timeout(a.config.elementTimeout()).ElementX(xpath)
	if err != nil {
		return elementError(xpath, err)
	}
	return fillElement(el.CancelTimeout().Context(ctx), xpath, value)
}

func fillElement(el *rod.Element, selector, value string) error {
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", selector, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("failed to fill %s: %w", selector, err)
	}
	return nil
}

func (a *Automation) Visible(ctx context.Context, selector string) (bool, error) {
	if err := a.requirePage(); err != nil {
		return false, err
	}
	has, el, err := a.page.Context(ctx).Has(selector)
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}
	visible, err := el.Visible()
	if err != nil {
		// detached while the form was being swapped for the receipt
		var notFound *rod.ObjectNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return visible, nil
}

func (a *Automation) InnerHTML(ctx context.Context, selector string) (string, error) {
	el, err := a.element(ctx, selector)
	if err != nil {
		return "", err
	}
	html, err := el.Property("innerHTML")
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", selector, err)
	}
	return html.Str(), nil
}

func (a *Automation) Screenshot(ctx context.Context) ([]byte, error) {
	if err := a.requirePage(); err != nil {
		return nil, err
	}
	data, err := a.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	return data, nil
}

// RenderPDF prints html from a scratch tab so the order page keeps its state.
func (a *Automation) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if a.browser == nil {
		return nil, errors.New("browser not started")
	}

	scratch, err := a.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open print tab: %w", err)
	}
	defer func() { _ = scratch.Close() }()

	if err := scratch.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("failed to load receipt markup: %w", err)
	}
	if err := scratch.WaitLoad(); err != nil {
		return nil, fmt.Errorf("receipt markup failed to load: %w", err)
	}

	stream, err := scratch.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return nil, fmt.Errorf("failed to print receipt: %w", err)
	}

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read printed receipt: %w", err)
	}
	return data, nil
}
