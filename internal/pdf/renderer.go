// Package pdf renders HTML documents to PDF with headless Chrome.
package pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Renderer drives one headless Chrome instance for the process lifetime.
// Each Render call gets its own page, closed on every exit path.
type Renderer struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
	logger   *slog.Logger
}

// Options configures the renderer.
type Options struct {
	// BrowserBin overrides the Chrome binary; empty uses the rod-managed one.
	BrowserBin string
	// Timeout bounds a single render call. Zero means 90s.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewRenderer launches the browser and connects to it.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	l := launcher.New().Headless(true)
	if opts.BrowserBin != "" {
		l = l.Bin(opts.BrowserBin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	opts.Logger.Info("headless browser ready", "bin", opts.BrowserBin)

	return &Renderer{
		browser:  browser,
		launcher: l,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}, nil
}

// Render produces a PDF from a complete HTML document. The call is
// bounded by the renderer timeout on top of the caller's context.
func (r *Renderer) Render(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	page = page.Context(ctx)
	defer func() {
		if err := page.Close(); err != nil {
			r.logger.Warn("failed to close render page", "error", err)
		}
	}()

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for document: %w", err)
	}

	start := time.Now()
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read pdf stream: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty pdf produced")
	}

	r.logger.Debug("pdf rendered", "bytes", len(data), "duration_ms", time.Since(start).Milliseconds())
	return data, nil
}

// Close shuts the browser down and cleans up the managed binary dir.
func (r *Renderer) Close() error {
	err := r.browser.Close()
	r.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}
