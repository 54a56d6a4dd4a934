package gateways

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/ochairo/gradegate/internal/domain/entities"
	"github.com/ochairo/gradegate/internal/domain/interfaces"
)

// DefaultSSLLabsAPIURL is the public SSL Labs API endpoint
const DefaultSSLLabsAPIURL = "https://api.ssllabs.com/api/v3"

var (
	// ErrAssessmentFailed is returned when the scanner finishes with status ERROR
	ErrAssessmentFailed = errors.New("assessment failed")

	// ErrRateLimited is returned when the API keeps rejecting requests for capacity reasons
	ErrRateLimited = errors.New("SSL Labs API rate limited")

	errNotReady = errors.New("assessment not ready")
)

// SSLLabsConfig configures the SSL Labs gateway
type SSLLabsConfig struct {
	APIURL        string
	Email         string        // required by API v4, sent as the "email" header
	PollInterval  time.Duration // delay between status polls
	MaxWait       time.Duration // upper bound for a single assessment
	RetryInterval time.Duration // first delay after a 429/503/529
	MaxRetries    uint64
}

// SSLLabsConfigFromEnv reads SSLLABS_API_URL and SSLLABS_EMAIL on top of the defaults
func SSLLabsConfigFromEnv() SSLLabsConfig {
	return SSLLabsConfig{
		APIURL: os.Getenv("SSLLABS_API_URL"),
		Email:  os.Getenv("SSLLABS_EMAIL"),
	}
}

func (c SSLLabsConfig) withDefaults() SSLLabsConfig {
	if c.APIURL == "" {
		c.APIURL = DefaultSSLLabsAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 20 * time.Minute
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 15 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	return c
}

// ssllabsGateway implements ScanGateway against the SSL Labs HTTP API
type ssllabsGateway struct {
	config     SSLLabsConfig
	httpClient *http.Client
	logger     interfaces.Logger
}

// NewSSLLabsGateway creates a new SSL Labs gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewSSLLabsGateway(config SSLLabsConfig, logger interfaces.Logger) *ssllabsGateway {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ssllabsGateway{
		config: config.withDefaults(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Analyze requests an assessment for hostname and polls until it is READY or ERROR
func (g *ssllabsGateway) Analyze(ctx context.Context, hostname string, opts entities.AnalyzeOptions) (*entities.Host, error) {
	if hostname == "" {
		return nil, fmt.Errorf("hostname is required")
	}

	params := analyzeParams(hostname, opts, true)
	started := time.Now()
	var host *entities.Host

	poll := backoff.WithContext(backoff.NewConstantBackOff(g.config.PollInterval), ctx)
	err := backoff.Retry(func() error {
		var h entities.Host
		if err := g.get(ctx, "/analyze", params, &h); err != nil {
			return backoff.Permanent(err)
		}
		// Only the first call may start a new assessment
		params = analyzeParams(hostname, opts, false)
		host = &h

		switch {
		case h.Status == entities.StatusError:
			return backoff.Permanent(fmt.Errorf("%w: %s: %s", ErrAssessmentFailed, hostname, h.StatusMessage))
		case h.Done():
			return nil
		case time.Since(started) > g.config.MaxWait:
			return backoff.Permanent(fmt.Errorf("assessment of %s not finished after %v", hostname, g.config.MaxWait))
		}

		g.logger.Debug("assessment in progress",
			interfaces.F("host", hostname),
			interfaces.F("status", h.Status),
			interfaces.F("endpoints", len(h.Endpoints)))
		return errNotReady
	}, poll)

	if err != nil {
		if errors.Is(err, errNotReady) {
			// The poll policy stops once the deadline is closer than the next poll
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("assessment of %s not finished before deadline: %w", hostname, context.DeadlineExceeded)
		}
		return nil, err
	}

	return host, nil
}

// Info returns scanner versions and the client's assessment capacity
func (g *ssllabsGateway) Info(ctx context.Context) (*entities.ScannerInfo, error) {
	var info entities.ScannerInfo
	if err := g.get(ctx, "/info", url.Values{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// get performs one API call, retrying while the API reports it is overloaded
func (g *ssllabsGateway) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := g.config.APIURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = g.config.RetryInterval
	retry.MaxElapsedTime = 0
	retry.Reset()
	policy := backoff.WithContext(backoff.WithMaxRetries(retry, g.config.MaxRetries), ctx)

	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		if g.config.Email != "" {
			req.Header.Set("email", g.config.Email)
		}

		resp, err := g.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if errors.Is(err, context.DeadlineExceeded) {
				// Client timeout: a failed request, not an expired run
				return fmt.Errorf("SSL Labs API request timed out: %v", err)
			}
			return fmt.Errorf("SSL Labs API request failed: %w", err)
		}
		//nolint:errcheck // Defer close on HTTP response body
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, 529:
			g.logger.Warn("SSL Labs API busy, backing off",
				interfaces.F("path", path),
				interfaces.F("status", resp.StatusCode))
			return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return backoff.Permanent(fmt.Errorf("SSL Labs API returned status %d: %s",
				resp.StatusCode, strings.TrimSpace(string(body))))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse SSL Labs response: %w", err))
		}
		return nil
	}, policy)
}

func analyzeParams(hostname string, opts entities.AnalyzeOptions, first bool) url.Values {
	params := url.Values{}
	params.Set("host", hostname)
	params.Set("all", "done")
	if opts.Publish {
		params.Set("publish", "on")
	} else {
		params.Set("publish", "off")
	}

	if opts.FromCache {
		params.Set("fromCache", "on")
		if opts.MaxAgeHours > 0 {
			params.Set("maxAge", strconv.Itoa(opts.MaxAgeHours))
		}
	} else if first {
		params.Set("startNew", "on")
	}
	return params
}
