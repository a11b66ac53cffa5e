// Package chrome drives a headless Chrome through chromedp to print the
// résumé to PDF and to measure its rendered blocks.
package chrome

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/starford/cvcraft/internal/printview"
)

// A4 paper size in inches.
const (
	paperWidth  = 8.27
	paperHeight = 11.69
)

// measureScript returns the scrollHeight of the header and of every
// section, mirroring how the editor measures them in the browser.
var measureScript = fmt.Sprintf(`(() => {
	const header = document.querySelector(%q);
	return {
		header: header ? header.scrollHeight : 0,
		sections: Array.from(document.querySelectorAll(%q)).map(el => el.scrollHeight),
	};
})()`, printview.HeaderSelector, printview.SectionSelector)

// Browser launches a fresh headless Chrome per call.
type Browser struct {
	execPath string
	timeout  time.Duration
}

// Option configures a Browser.
type Option func(*Browser)

// WithExecPath sets the Chrome binary. Empty uses chromedp's lookup.
func WithExecPath(path string) Option {
	return func(b *Browser) {
		b.execPath = path
	}
}

// WithTimeout bounds each call.
func WithTimeout(d time.Duration) Option {
	return func(b *Browser) {
		b.timeout = d
	}
}

// New creates a Browser.
func New(opts ...Option) *Browser {
	b := &Browser{timeout: 60 * time.Second}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var (
	_ printview.Printer  = (*Browser)(nil)
	_ printview.Measurer = (*Browser)(nil)
)

// PrintPDF renders html as an A4 PDF with backgrounds.
func (b *Browser) PrintPDF(ctx context.Context, html []byte) ([]byte, error) {
	var pdf []byte
	err := b.run(ctx, html, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		pdf, _, err = page.PrintToPDF().
			WithPrintBackground(true).
			WithPaperWidth(paperWidth).
			WithPaperHeight(paperHeight).
			WithPreferCSSPageSize(true).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("chrome: print pdf: %w", err)
	}
	return pdf, nil
}

// Measure lays out html and returns the block heights.
func (b *Browser) Measure(ctx context.Context, html []byte) (printview.Measurements, error) {
	var m printview.Measurements
	if err := b.run(ctx, html, chromedp.Evaluate(measureScript, &m)); err != nil {
		return printview.Measurements{}, fmt.Errorf("chrome: measure: %w", err)
	}
	return m, nil
}

func (b *Browser) run(ctx context.Context, html []byte, action chromedp.Action) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if b.execPath != "" {
		opts = append(opts, chromedp.ExecPath(b.execPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	runCtx, cancelRun := context.WithTimeout(cctx, b.timeout)
	defer cancelRun()

	tmpDir, err := os.MkdirTemp("", "cvcraft-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return err
	}

	return chromedp.Run(runCtx,
		chromedp.Navigate("file://"+filepath.ToSlash(htmlPath)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		action,
	)
}
