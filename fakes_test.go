package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const sampleReceipt = `<h3>Receipt</h3>
<div>2026-10-19T12:00:00.000Z</div>
<p class="badge badge-success">RSB-ROBO-ORDER-TEST42</p>
<p>Address 123</p>
<div id="parts" class="alert alert-light"><div>Head: 1</div><div>Body: 2</div><div>Legs: 3</div></div>
<p>Thank you for your order!</p>`

// fakePage mimics the order form: a modal on every load, an order button the shop
// keeps on screen while it rejects the submission, and a receipt once it accepts.
type fakePage struct {
	t *testing.T

	// rejectPerOrder is how many clicks on the order button each order needs before it is accepted.
	rejectPerOrder int
	failOn         map[string]error

	pdf []byte
	png []byte

	calls         []string
	rendered      []string
	modalOpen     bool
	formVisible   bool
	clicks        int
	visibleChecks int
}

func newFakePage(t *testing.T) *fakePage {
	return &fakePage{
		t:      t,
		failOn: map[string]error{},
		pdf:    testPDF(t),
		png:    testPNG(t),
	}
}

func (f *fakePage) record(call string) error {
	f.calls = append(f.calls, call)
	if err, ok := f.failOn[call]; ok {
		return err
	}
	return nil
}

func (f *fakePage) requireForm(call string) error {
	if f.modalOpen {
		return fmt.Errorf("%s: modal is covering the form", call)
	}
	if !f.formVisible {
		return fmt.Errorf("%s: %w", call, ErrElementNotFound)
	}
	return nil
}

func (f *fakePage) Navigate(_ context.Context, url string) error {
	if err := f.record("navigate " + url); err != nil {
		return err
	}
	f.modalOpen = true
	f.formVisible = true
	return nil
}

func (f *fakePage) Click(_ context.Context, selector string) error {
	call := "click " + selector
	if err := f.record(call); err != nil {
		return err
	}

	switch selector {
	case "#order":
		if err := f.requireForm(call); err != nil {
			return err
		}
		f.clicks++
		if f.clicks > f.rejectPerOrder {
			f.formVisible = false
		}
	case "#order-another":
		if f.formVisible {
			return fmt.Errorf("%s: %w", call, ErrElementNotFound)
		}
		f.formVisible = true
		f.modalOpen = true
		f.clicks = 0
	}
	return nil
}

func (f *fakePage) ClickText(_ context.Context, selector, text string) error {
	call := "clicktext " + selector + " " + text
	if err := f.record(call); err != nil {
		return err
	}
	if selector == "button" && text == "OK" {
		if !f.modalOpen {
			return fmt.Errorf("%s: %w", call, ErrElementNotFound)
		}
		f.modalOpen = false
		return nil
	}
	return f.requireForm(call)
}

func (f *fakePage) Focus(_ context.Context, selector string) error {
	call := "focus " + selector
	if err := f.record(call); err != nil {
		return err
	}
	return f.requireForm(call)
}

func (f *fakePage) SelectOption(_ context.Context, selector, text string) error {
	call := "select " + selector + " " + text
	if err := f.record(call); err != nil {
		return err
	}
	return f.requireForm(call)
}

func (f *fakePage) Fill(_ context.Context, selector, value string) error {
	call := "fill " + selector + " " + value
	if err := f.record(call); err != nil {
		return err
	}
	return f.requireForm(call)
}

func (f *fakePage) FillXPath(_ context.Context, xpath, value string) error {
	call := "fillx " + value
	if err := f.record(call); err != nil {
		return err
	}
	return f.requireForm(call)
}

func (f *fakePage) Visible(_ context.Context, selector string) (bool, error) {
	f.visibleChecks++
	if selector == "#order" {
		return f.formVisible, nil
	}
	return false, nil
}

func (f *fakePage) InnerHTML(_ context.Context, selector string) (string, error) {
	call := "inner " + selector
	if err := f.record(call); err != nil {
		return "", err
	}
	if f.formVisible {
		return "", fmt.Errorf("%s: %w", call, ErrElementNotFound)
	}
	return sampleReceipt, nil
}

func (f *fakePage) Screenshot(_ context.Context) ([]byte, error) {
	if err := f.record("screenshot"); err != nil {
		return nil, err
	}
	return f.png, nil
}

func (f *fakePage) RenderPDF(_ context.Context, html string) ([]byte, error) {
	if err := f.record("pdf"); err != nil {
		return nil, err
	}
	f.rendered = append(f.rendered, html)
	return f.pdf, nil
}

func (f *fakePage) countCalls(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		for y := 0; y < 48; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// testPDF builds a one-page PDF the same way receipts get their screenshot page.
func testPDF(t *testing.T) []byte {
	t.Helper()

	dir := t.TempDir()
	imgPath := filepath.Join(dir, "page.png")
	require.NoError(t, os.WriteFile(imgPath, testPNG(t), 0644))

	pdfPath := filepath.Join(dir, "page.pdf")
	require.NoError(t, api.ImportImagesFile([]string{imgPath}, pdfPath, pdfcpu.DefaultImportConfig(), pdfConfig()))

	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	return data
}

// serveOrders starts a server publishing csv at /orders.csv.
func serveOrders(t *testing.T, csv string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(csv))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, ordersURL string) *Config {
	t.Helper()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.OrdersURL = ordersURL
	cfg.OrdersFile = filepath.Join(dir, "orders.csv")
	cfg.OutputDir = filepath.Join(dir, "output")
	cfg.BrowserProfilePath = ""
	cfg.SubmitCheckTimeoutMs = 20
	cfg.SubmitPollIntervalMs = 5
	cfg.MaxSubmitAttempts = 3
	return cfg
}

func newTestRobot(t *testing.T, page Page, csv string) (*Robot, *Config) {
	t.Helper()

	srv := serveOrders(t, csv)
	cfg := testConfig(t, srv.URL+"/orders.csv")
	return NewRobot(cfg, page, zaptest.NewLogger(t)), cfg
}
