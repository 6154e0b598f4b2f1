package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/elitepdf/invoicegen/internal/compose"
)

// Gotenberg renders blocks by generating HTML and converting it through
// a Gotenberg service's Chromium route.
type Gotenberg struct {
	baseURL    string
	httpClient *http.Client
}

// NewGotenberg constructs a Gotenberg-backed renderer.
func NewGotenberg(baseURL string) *Gotenberg {
	return &Gotenberg{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping checks if the remote Gotenberg service is available.
func (g *Gotenberg) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// Render converts the block sequence into PDF bytes via Gotenberg.
func (g *Gotenberg) Render(ctx context.Context, blocks []compose.Block, cfg PageConfig) ([]byte, error) {
	cfg = cfg.withDefaults()
	if g.baseURL == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, buildHTML(blocks)); err != nil {
		return nil, err
	}

	width, height := paperInches(cfg)
	margin := cfg.MarginMM / 25.4
	fields := map[string]string{
		"paperWidth":   fmt.Sprintf("%.2f", width),
		"paperHeight":  fmt.Sprintf("%.2f", height),
		"marginTop":    fmt.Sprintf("%.2f", margin),
		"marginBottom": fmt.Sprintf("%.2f", margin),
		"marginLeft":   fmt.Sprintf("%.2f", margin),
		"marginRight":  fmt.Sprintf("%.2f", margin),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func paperInches(cfg PageConfig) (width, height float64) {
	switch strings.ToUpper(cfg.Size) {
	case "LETTER":
		width, height = 8.5, 11
	default: // A4
		width, height = 8.27, 11.69
	}
	if strings.EqualFold(cfg.Orientation, "L") {
		width, height = height, width
	}
	return width, height
}
