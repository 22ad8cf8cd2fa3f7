// Package client provides the HTTP client for the external schedule
// extractor service.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	appConfig "github.com/festy23/tournament_sync/internal/config"
	feedModel "github.com/festy23/tournament_sync/internal/feed/model"
	"github.com/festy23/tournament_sync/pkg/retry"
)

// Fetcher defines the interface for retrieving a record bundle for a
// tournament source URL. The reconciliation engine depends on this interface
// so tests can substitute a stub extractor.
type Fetcher interface {
	// FetchBundle retrieves the normalized record bundle for a source URL.
	FetchBundle(ctx context.Context, sourceURL string) (*feedModel.Bundle, error)
}

// Client fetches record bundles over HTTP with bounded retries.
type Client struct {
	cfg        appConfig.FeedConfig
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// New creates a new extractor client instance.
func New(cfg appConfig.FeedConfig, logger *zap.SugaredLogger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
	}
}

// FetchBundle retrieves the record bundle for a source URL, retrying
// transient failures with increasing backoff. Exhausting all attempts
// surfaces ErrSourceUnavailable so the caller records the run as failed.
func (c *Client) FetchBundle(ctx context.Context, sourceURL string) (*feedModel.Bundle, error) {
	retryCfg := retry.Config{
		MaxAttempts:  c.cfg.MaxAttempts,
		InitialDelay: c.cfg.RetryDelay,
		MaxDelay:     c.cfg.MaxRetryDelay,
		Multiplier:   2.0,
	}

	bundle, err := retry.DoWithResult(ctx, retryCfg, func() (*feedModel.Bundle, error) {
		return c.fetchOnce(ctx, sourceURL)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, feedModel.ErrInvalidBundle) {
			return nil, err
		}
		c.logger.Errorw("all fetch attempts failed",
			"source_url", sourceURL,
			"attempts", c.cfg.MaxAttempts,
			"error", err)
		return nil, fmt.Errorf("%w: %v", feedModel.ErrSourceUnavailable, err)
	}

	return bundle, nil
}

// fetchOnce performs a single extractor call.
func (c *Client) fetchOnce(ctx context.Context, sourceURL string) (*feedModel.Bundle, error) {
	endpoint := fmt.Sprintf("%s/extract?url=%s", c.cfg.ExtractorURL, url.QueryEscape(sourceURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build extractor request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extractor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("extractor returned status %d", resp.StatusCode)
	}

	var bundle feedModel.Bundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}

	if bundle.Tournament.ExternalID == "" {
		return nil, feedModel.ErrInvalidBundle
	}

	return &bundle, nil
}
