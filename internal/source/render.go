package source

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
)

// PageRenderer returns the HTML of a page after any client-side rendering.
type PageRenderer interface {
	Render(ctx context.Context, pageURL string) ([]byte, error)
}

// HTTPRenderer returns the page as served, without running scripts.
type HTTPRenderer struct {
	Fetcher *Fetcher
}

func (r HTTPRenderer) Render(ctx context.Context, pageURL string) ([]byte, error) {
	return r.Fetcher.Get(ctx, pageURL, nil)
}

const (
	defaultRenderBudget  = 5 * time.Second
	defaultRenderTimeout = 20 * time.Second
	renderWaitDelay      = time.Second
)

// ChromeRenderer renders the page in headless Chrome and returns the
// serialized DOM.
type ChromeRenderer struct {
	Path string
	// Budget is the virtual time Chrome is given to run page scripts.
	Budget time.Duration
	// Timeout bounds the whole browser run in wall-clock time.
	Timeout time.Duration
}

func (r ChromeRenderer) Render(ctx context.Context, pageURL string) ([]byte, error) {
	budget := r.Budget
	if budget <= 0 {
		budget = defaultRenderBudget
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.Path,
		"--headless",
		"--no-sandbox",
		"--disable-gpu",
		"--disable-dev-shm-usage",
		fmt.Sprintf("--virtual-time-budget=%d", budget.Milliseconds()),
		"--dump-dom",
		pageURL,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children of a killed browser can hold the output pipes open.
	cmd.WaitDelay = renderWaitDelay

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("%w: chrome render timed out after %s", domain.ErrUpstreamUnavailable, timeout)
		}
		return nil, fmt.Errorf("%w: chrome render: %w: %s", domain.ErrUpstreamUnavailable, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
