package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const mergedReceiptPrefix = "full_receipt_"

const receiptDocument = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title></title>
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 2em; }
.badge { font-weight: bold; }
</style>
</head>
<body><div id="receipt"></div></body>
</html>`

// Receipt is the confirmation markup the shop shows after an accepted order.
type Receipt struct {
	HTML string
	// ID is the shop's receipt reference (RSB-ROBO-ORDER-...), empty if the markup has none.
	ID string
}

// ParseReceipt reads the inner markup of the confirmation element.
func ParseReceipt(inner string) (*Receipt, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(inner))
	if err != nil {
		return nil, fmt.Errorf("failed to parse receipt markup: %w", err)
	}

	return &Receipt{
		HTML: inner,
		ID:   strings.TrimSpace(doc.Find(".badge-success").First().Text()),
	}, nil
}

// Document wraps the receipt markup in a printable standalone page.
func (r *Receipt) Document(title string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(receiptDocument))
	if err != nil {
		return "", err
	}
	doc.Find("title").SetText(title)
	doc.Find("#receipt").SetHtml(r.HTML)

	return goquery.OuterHtml(doc.Selection)
}

func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// CaptureReceipt exports the confirmation shown for orderNumber to its receipt PDF.
func (r *Robot) CaptureReceipt(ctx context.Context, orderNumber string) (*Receipt, error) {
	inner, err := r.page.InnerHTML(ctx, r.cfg.Selectors.Receipt)
	if err != nil {
		return nil, err
	}

	receipt, err := ParseReceipt(inner)
	if err != nil {
		return nil, err
	}

	html, err := receipt.Document("Receipt " + orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to build receipt document: %w", err)
	}

	pdf, err := r.page.RenderPDF(ctx, html)
	if err != nil {
		return nil, err
	}

	if err := writeArtifact(r.cfg.ReceiptPath(orderNumber), pdf); err != nil {
		return nil, err
	}
	return receipt, nil
}

// CaptureScreenshot saves a full-page screenshot for orderNumber.
func (r *Robot) CaptureScreenshot(ctx context.Context, orderNumber string) error {
	png, err := r.page.Screenshot(ctx)
	if err != nil {
		return err
	}
	return writeArtifact(r.cfg.ScreenshotPath(orderNumber), png)
}

func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// MergeReceipt writes receiptPath followed by a page holding screenshotPath to outPath.
func MergeReceipt(receiptPath, screenshotPath, outPath string) error {
	data, err := os.ReadFile(receiptPath)
	if err != nil {
		return fmt.Errorf("failed to read receipt: %w", err)
	}

	conf := pdfConfig()
	receiptPages, err := api.PageCountFile(receiptPath)
	if err != nil {
		return fmt.Errorf("receipt %s is not a valid PDF: %w", receiptPath, err)
	}

	if err := writeArtifact(outPath, data); err != nil {
		return err
	}

	if err := api.ImportImagesFile([]string{screenshotPath}, outPath, pdfcpu.DefaultImportConfig(), conf); err != nil {
		_ = os.Remove(outPath)
		return fmt.Errorf("failed to append screenshot: %w", err)
	}

	mergedPages, err := api.PageCountFile(outPath)
	if err != nil {
		return fmt.Errorf("failed to read merged receipt: %w", err)
	}
	if mergedPages <= receiptPages {
		return fmt.Errorf("merged receipt %s has %d pages, want more than %d", outPath, mergedPages, receiptPages)
	}

	return nil
}
