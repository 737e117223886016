// Package render turns resume documents into PDF files.
package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/samthedataman/resumably/internal/config"
	"github.com/samthedataman/resumably/internal/document"
)

// Letter paper in inches
const (
	paperWidth   = 8.5
	paperHeight  = 11.0
	marginTop    = 0.5
	marginBottom = 0.5
	marginSide   = 0.6
)

// Renderer produces resume PDFs
type Renderer interface {
	RenderResumePDF(ctx context.Context, doc document.Document) ([]byte, error)
}

// ChromedpRenderer prints the HTML resume with headless Chrome. With a remote
// URL it attaches to a running browser instead of starting one.
type ChromedpRenderer struct {
	remoteURL string
	timeout   time.Duration
}

// NewChromedpRenderer creates a renderer from configuration
func NewChromedpRenderer(cfg config.RenderConfig) *ChromedpRenderer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromedpRenderer{remoteURL: cfg.RemoteURL, timeout: timeout}
}

// RenderResumePDF renders the document to a Letter-size PDF
func (r *ChromedpRenderer) RenderResumePDF(ctx context.Context, doc document.Document) ([]byte, error) {
	html, err := HTML(doc)
	if err != nil {
		return nil, err
	}

	allocCtx, cancelAlloc := r.allocator(ctx)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, r.timeout)
	defer cancel()

	started := time.Now()
	var pdf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(marginTop).
				WithMarginBottom(marginBottom).
				WithMarginLeft(marginSide).
				WithMarginRight(marginSide).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render resume PDF: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"bytes":    len(pdf),
		"duration": time.Since(started).String(),
	}).Debug("Rendered resume PDF")
	return pdf, nil
}

func (r *ChromedpRenderer) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.remoteURL != "" {
		return chromedp.NewRemoteAllocator(ctx, r.remoteURL)
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	return chromedp.NewExecAllocator(ctx, opts...)
}

// AttachmentName is the file name used when mailing a resume,
// e.g. "Sam_Doe_Resume.pdf".
func AttachmentName(doc document.Document) string {
	name := strings.Join(strings.Fields(doc.PersonalString("name")), "_")
	if name == "" {
		name = "Candidate"
	}
	return name + "_Resume.pdf"
}
