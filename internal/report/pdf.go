// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const defaultPDFTimeout = 60 * time.Second

// ErrNoChrome is returned when no Chromium binary can be found.
var ErrNoChrome = errors.New("no chromium binary found")

// chromeCandidates are probed in order when no path is configured.
var chromeCandidates = []string{
	"/usr/bin/chromium-browser",
	"/usr/bin/chromium",
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// PDFRenderer prints HTML documents to A4 PDF with headless Chromium.
type PDFRenderer struct {
	ChromePath string
	Timeout    time.Duration
}

// NewPDFRenderer returns a renderer using chromePath, or the first
// Chromium found on the system when chromePath is empty.
func NewPDFRenderer(chromePath string) *PDFRenderer {
	if chromePath == "" {
		chromePath = detectChromePath()
	}
	return &PDFRenderer{ChromePath: chromePath, Timeout: defaultPDFTimeout}
}

// Available reports whether a Chromium binary is configured.
func (r *PDFRenderer) Available() bool {
	return r.ChromePath != ""
}

// Render prints htmlDoc and returns the PDF bytes.
func (r *PDFRenderer) Render(ctx context.Context, htmlDoc string) ([]byte, error) {
	if !r.Available() {
		return nil, ErrNoChrome
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultPDFTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.ExecPath(r.ChromePath),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
		`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))

	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			pdf = out
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("printing pdf: %w", err)
	}
	return pdf, nil
}

// WritePDF renders htmlDoc and writes it to path.
func (r *PDFRenderer) WritePDF(ctx context.Context, path, htmlDoc string) error {
	pdf, err := r.Render(ctx, htmlDoc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

func detectChromePath() string {
	for _, p := range chromeCandidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
