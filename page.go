package main

import "context"

// Page is the browser surface the order workflow drives. Automation implements it
// on top of a rod page; tests script it in memory.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	// ClickText clicks the first element matching selector whose trimmed text equals text.
	ClickText(ctx context.Context, selector, text string) error
	Focus(ctx context.Context, selector string) error
	SelectOption(ctx context.Context, selector, text string) error
	Fill(ctx context.Context, selector, value string) error
	FillXPath(ctx context.Context, xpath, value string) error
	// Visible reports whether selector currently matches a visible element. It does not wait.
	Visible(ctx context.Context, selector string) (bool, error)
	InnerHTML(ctx context.Context, selector string) (string, error)
	// Screenshot returns a full-page PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	// RenderPDF prints a standalone HTML document to PDF.
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}
