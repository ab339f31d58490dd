// Package callback posts JSON notifications to client-supplied URLs.
package callback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"medtranslate/internal/logger"
)

// ErrDeliveryFailed is returned when the callback endpoint cannot be reached
// or answers with an error status.
var ErrDeliveryFailed = errors.New("callback delivery failed")

// Client delivers callbacks over HTTP.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewClient creates a callback client. Transient failures are retried twice.
func NewClient(timeout time.Duration) *Client {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "medtranslate-callback")
	return &Client{http: c, log: logger.WithComponent("callback")}
}

// Notify posts payload as JSON to url.
func (c *Client) Notify(ctx context.Context, url string, payload any) error {
	resp, err := c.http.R().SetContext(ctx).SetBody(payload).Post(url)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s answered %s; body: %s", ErrDeliveryFailed, url, resp.Status(), resp.String())
	}

	c.log.Debug().Str("url", url).Int("status", resp.StatusCode()).Dur("took", resp.Time()).Msg("Callback posted")
	return nil
}
