package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/madmatrix/tickethub/internal/logging"
)

const (
	imagesSettledJS = `() => Array.from(document.images).every(
		img => img.dataset.failed === '1' || (img.complete && img.naturalWidth > 0))`
	fontsReadyJS = `() => document.fonts.ready.then(() => true)`

	closeTimeout = 5 * time.Second
)

// RodOptions tune the headless capture.
type RodOptions struct {
	Scale         float64
	ImageAttempts int
	PollDelay     time.Duration
	SettleDelay   time.Duration
	// ChromeBin selects the browser binary; empty lets rod find or download one.
	ChromeBin string
	// ControlURL attaches to an already running browser instead of launching.
	ControlURL string
	// Selector is the element captured, "#ticket" by default.
	Selector string
}

// RodRasterizer drives a shared headless Chrome. The browser starts on first use.
type RodRasterizer struct {
	opts RodOptions
	log  *zap.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func NewRodRasterizer(opts RodOptions, log *zap.Logger) *RodRasterizer {
	if opts.Scale <= 0 {
		opts.Scale = 3
	}
	if opts.ImageAttempts <= 0 {
		opts.ImageAttempts = 10
	}
	if opts.PollDelay <= 0 {
		opts.PollDelay = 200 * time.Millisecond
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.Selector == "" {
		opts.Selector = "#ticket"
	}
	return &RodRasterizer{opts: opts, log: logging.OrNop(log)}
}

func (r *RodRasterizer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	controlURL := r.opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true)
		if r.opts.ChromeBin != "" {
			l = l.Bin(r.opts.ChromeBin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		r.launcher = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if r.launcher != nil {
			r.launcher.Kill()
			r.launcher = nil
		}
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	r.log.Info("headless browser ready", zap.Bool("attached", r.opts.ControlURL != ""))
	r.browser = browser
	return browser, nil
}

func (r *RodRasterizer) Capture(ctx context.Context, html string, width, height int) ([]byte, error) {
	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	target, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	// target keeps the browser context so the tab is closed even after ctx is done.
	defer func() {
		if err := target.Timeout(closeTimeout).Close(); err != nil {
			r.log.Warn("close page", zap.Error(err))
		}
	}()
	page := target.Context(ctx)

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: r.opts.Scale,
		Mobile:            false,
	}).Call(page); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	settled, err := poll(ctx, r.opts.ImageAttempts, r.opts.PollDelay, func(context.Context) (bool, error) {
		res, err := page.Eval(imagesSettledJS)
		if err != nil {
			return false, err
		}
		return res.Value.Bool(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("wait for images: %w", err)
	}
	if !settled {
		r.log.Warn("images still loading, capturing anyway", zap.Int("attempts", r.opts.ImageAttempts))
	}

	if _, err := page.Eval(fontsReadyJS); err != nil {
		return nil, fmt.Errorf("wait for fonts: %w", err)
	}
	if err := sleep(ctx, r.opts.SettleDelay); err != nil {
		return nil, err
	}

	el, err := page.Element(r.opts.Selector)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.opts.Selector, err)
	}
	shape, err := el.Shape()
	if err != nil {
		return nil, fmt.Errorf("measure %s: %w", r.opts.Selector, err)
	}
	clip, err := clipFor(shape.Box())
	if err != nil {
		return nil, fmt.Errorf("measure %s: %w", r.opts.Selector, err)
	}
	png, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip:   clip,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return png, nil
}

// clipFor turns the element box (CSS pixels) into a screenshot clip. Chrome
// multiplies the clip by the device scale factor, so the raster comes out at
// box size times Scale.
func clipFor(box *proto.DOMRect) (*proto.PageViewport, error) {
	if box == nil || box.Width <= 0 || box.Height <= 0 {
		return nil, errors.New("element has no visible box")
	}
	return &proto.PageViewport{
		X:      box.X,
		Y:      box.Y,
		Width:  box.Width,
		Height: box.Height,
		Scale:  1,
	}, nil
}

// Close shuts the browser down. It is safe to call when nothing was started.
func (r *RodRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}
