// Package fcm sends push notifications through the Firebase Cloud Messaging
// HTTP v1 API.
package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
)

const (
	messagingScope     = "https://www.googleapis.com/auth/firebase.messaging"
	defaultBaseURL     = "https://fcm.googleapis.com"
	defaultConcurrency = 16
)

// Client delivers one message per device token.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	concurrency int
	logger      *slog.Logger
}

// NewClient authenticates with a service-account key file.
func NewClient(ctx context.Context, projectID, credentialsFile string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read fcm credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSONWithType(ctx, data, google.ServiceAccount, messagingScope)
	if err != nil {
		return nil, fmt.Errorf("parse fcm credentials: %w", err)
	}
	httpClient := oauth2.NewClient(ctx, creds.TokenSource)
	httpClient.Timeout = timeout
	return newClient(httpClient, defaultBaseURL, projectID, logger), nil
}

func newClient(httpClient *http.Client, baseURL, projectID string, logger *slog.Logger) *Client {
	return &Client{
		httpClient:  httpClient,
		endpoint:    fmt.Sprintf("%s/v1/projects/%s/messages:send", baseURL, projectID),
		concurrency: defaultConcurrency,
		logger:      logger,
	}
}

type sendRequest struct {
	Message message `json:"message"`
}

type message struct {
	Token        string            `json:"token"`
	Notification notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SendBatch delivers msg to every token. Per-token failures are counted, not
// returned; the error is non-nil only when ctx ends first.
func (c *Client) SendBatch(ctx context.Context, tokens []string, msg domain.PushMessage) (domain.BatchResult, error) {
	ok := make([]bool, len(tokens))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, token := range tokens {
		g.Go(func() error {
			if err := c.send(gctx, token, msg); err != nil {
				c.logger.Debug("push send failed", "error", err)
				return nil
			}
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	var res domain.BatchResult
	for i, token := range tokens {
		if ok[i] {
			res.SuccessCount++
			continue
		}
		res.FailureCount++
		res.FailedTokens = append(res.FailedTokens, token)
	}
	return res, ctx.Err()
}

func (c *Client) send(ctx context.Context, token string, msg domain.PushMessage) error {
	body, err := json.Marshal(sendRequest{Message: message{
		Token:        token,
		Notification: notification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fcm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fcm returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
