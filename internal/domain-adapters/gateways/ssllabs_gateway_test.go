package gateways

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ochairo/gradegate/internal/domain/entities"
)

func testConfig(url string) SSLLabsConfig {
	return SSLLabsConfig{
		APIURL:        url,
		PollInterval:  time.Millisecond,
		MaxWait:       5 * time.Second,
		RetryInterval: time.Millisecond,
		MaxRetries:    3,
	}
}

// Test creating a new SSL Labs gateway
func TestNewSSLLabsGateway(t *testing.T) {
	gateway := NewSSLLabsGateway(SSLLabsConfig{}, nil)

	if gateway == nil {
		t.Fatal("NewSSLLabsGateway returned nil")
	}

	if gateway.config.APIURL != DefaultSSLLabsAPIURL {
		t.Errorf("API URL = %s, want %s", gateway.config.APIURL, DefaultSSLLabsAPIURL)
	}
	if gateway.config.PollInterval != 10*time.Second {
		t.Errorf("PollInterval = %v, want 10s", gateway.config.PollInterval)
	}
}

func TestSSLLabsConfigFromEnv(t *testing.T) {
	t.Setenv("SSLLABS_API_URL", "https://api.ssllabs.com/api/v4/")
	t.Setenv("SSLLABS_EMAIL", "ops@example.com")

	gateway := NewSSLLabsGateway(SSLLabsConfigFromEnv(), nil)
	if gateway.config.APIURL != "https://api.ssllabs.com/api/v4" {
		t.Errorf("API URL = %s", gateway.config.APIURL)
	}
	if gateway.config.Email != "ops@example.com" {
		t.Errorf("Email = %s", gateway.config.Email)
	}
}

// Test polling until the assessment is ready
func TestSSLLabsGateway_Analyze_PollsUntilReady(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Errorf("Path = %s, want /analyze", r.URL.Path)
		}
		if r.URL.Query().Get("host") != "example.com" {
			t.Errorf("host = %s, want example.com", r.URL.Query().Get("host"))
		}
		if r.Header.Get("email") != "ops@example.com" {
			t.Errorf("email header = %q", r.Header.Get("email"))
		}

		n := atomic.AddInt32(&calls, 1)
		startNew := r.URL.Query().Get("startNew")
		if n == 1 && startNew != "on" {
			t.Error("first request should start a new assessment")
		}
		if n > 1 && startNew != "" {
			t.Errorf("request %d should not start a new assessment", n)
		}

		host := entities.Host{Host: "example.com", Port: 443, Status: entities.StatusInProgress}
		if n >= 3 {
			host.Status = entities.StatusReady
			host.Endpoints = []entities.Endpoint{
				{IPAddress: "192.0.2.1", Grade: "A+"},
				{IPAddress: "192.0.2.2", Grade: "B"},
			}
		}
		_ = json.NewEncoder(w).Encode(host)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Email = "ops@example.com"
	gateway := NewSSLLabsGateway(cfg, nil)

	host, err := gateway.Analyze(context.Background(), "example.com", entities.AnalyzeOptions{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if host.Status != entities.StatusReady {
		t.Errorf("Status = %s, want READY", host.Status)
	}
	if len(host.Endpoints) != 2 || host.Endpoints[1].Grade != "B" {
		t.Errorf("Endpoints = %+v", host.Endpoints)
	}
}

func TestSSLLabsGateway_Analyze_FromCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("fromCache") != "on" || q.Get("maxAge") != "24" {
			t.Errorf("query = %s, want fromCache=on&maxAge=24", r.URL.RawQuery)
		}
		if q.Get("startNew") != "" {
			t.Error("cached lookups must not start a new assessment")
		}
		if q.Get("publish") != "off" {
			t.Errorf("publish = %s, want off", q.Get("publish"))
		}
		_ = json.NewEncoder(w).Encode(entities.Host{Host: "example.com", Status: entities.StatusReady})
	}))
	defer server.Close()

	gateway := NewSSLLabsGateway(testConfig(server.URL), nil)
	_, err := gateway.Analyze(context.Background(), "example.com", entities.AnalyzeOptions{FromCache: true, MaxAgeHours: 24})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
}

func TestSSLLabsGateway_Analyze_AssessmentError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(entities.Host{
			Host:          "nope.example.com",
			Status:        entities.StatusError,
			StatusMessage: "Unable to resolve domain name",
		})
	}))
	defer server.Close()

	gateway := NewSSLLabsGateway(testConfig(server.URL), nil)
	_, err := gateway.Analyze(context.Background(), "nope.example.com", entities.AnalyzeOptions{})

	if !errors.Is(err, ErrAssessmentFailed) {
		t.Fatalf("error = %v, want ErrAssessmentFailed", err)
	}
	if !strings.Contains(err.Error(), "Unable to resolve domain name") {
		t.Errorf("error %q should carry the status message", err)
	}
}

// Test that overload responses are retried
func TestSSLLabsGateway_Analyze_RetriesOverload(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(529)
			return
		}
		_ = json.NewEncoder(w).Encode(entities.Host{Host: "example.com", Status: entities.StatusReady})
	}))
	defer server.Close()

	gateway := NewSSLLabsGateway(testConfig(server.URL), nil)
	host, err := gateway.Analyze(context.Background(), "example.com", entities.AnalyzeOptions{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if host.Status != entities.StatusReady {
		t.Errorf("Status = %s", host.Status)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestSSLLabsGateway_Analyze_RateLimitExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	gateway := NewSSLLabsGateway(testConfig(server.URL), nil)
	_, err := gateway.Analyze(context.Background(), "example.com", entities.AnalyzeOptions{})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("error = %v, want ErrRateLimited", err)
	}
}

func TestSSLLabsGateway_Analyze_PermanentHTTPError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"invalid host"}]}`))
	}))
	defer server.Close()

	gateway := NewSSLLabsGateway(testConfig(server.URL), nil)
	_, err := gateway.Analyze(context.Background(), "example.com", entities.AnalyzeOptions{})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("error = %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 400)", calls)
	}
}

func TestSSLLabsGateway_Analyze_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(entities.Host{Host: "example.com", Status: entities.StatusInProgress})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.PollInterval = 20 * time.Millisecond
	gateway := NewSSLLabsGateway(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := gateway.Analyze(ctx, "example.com", entities.AnalyzeOptions{})
	if err == nil {
		t.Fatal("expected error when context expires")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
	if errors.Is(err, errNotReady) {
		t.Errorf("error = %v, internal poll state leaked", err)
	}
}

func TestSSLLabsGateway_Analyze_DeadlineBeforeNextPoll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(entities.Host{Host: "example.com", Status: entities.StatusDNS})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.PollInterval = time.Hour
	gateway := NewSSLLabsGateway(cfg, nil)

	// The deadline is far away but closer than the next poll
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := gateway.Analyze(ctx, "example.com", entities.AnalyzeOptions{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want context.DeadlineExceeded", err)
	}
	if ctx.Err() != nil {
		t.Error("Analyze() should give up without waiting for the deadline")
	}
}

func TestSSLLabsGateway_Analyze_ClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
			return
		}
		_ = json.NewEncoder(w).Encode(entities.Host{Host: "example.com", Status: entities.StatusReady})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 1
	gateway := NewSSLLabsGateway(cfg, nil)
	gateway.httpClient.Timeout = 20 * time.Millisecond

	_, err := gateway.Analyze(context.Background(), "example.com", entities.AnalyzeOptions{})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("error = %v, want request timeout", err)
	}
	// A slow request fails the host, it does not look like an expired run
	if errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v must not match context.DeadlineExceeded", err)
	}
}

func TestSSLLabsGateway_Analyze_MaxWait(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(entities.Host{Host: "example.com", Status: entities.StatusDNS})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxWait = 10 * time.Millisecond
	gateway := NewSSLLabsGateway(cfg, nil)

	_, err := gateway.Analyze(context.Background(), "example.com", entities.AnalyzeOptions{})
	if err == nil || !strings.Contains(err.Error(), "not finished") {
		t.Errorf("error = %v, want max wait error", err)
	}
}

func TestSSLLabsGateway_Analyze_EmptyHostname(t *testing.T) {
	gateway := NewSSLLabsGateway(SSLLabsConfig{}, nil)
	if _, err := gateway.Analyze(context.Background(), "", entities.AnalyzeOptions{}); err == nil {
		t.Error("expected error for empty hostname")
	}
}

func TestSSLLabsGateway_Info(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/info" {
			t.Errorf("Path = %s, want /info", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(entities.ScannerInfo{
			EngineVersion:      "2.3.0",
			CriteriaVersion:    "2009q",
			MaxAssessments:     25,
			CurrentAssessments: 1,
		})
	}))
	defer server.Close()

	gateway := NewSSLLabsGateway(testConfig(server.URL), nil)
	info, err := gateway.Info(context.Background())
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.EngineVersion != "2.3.0" || info.MaxAssessments != 25 {
		t.Errorf("Info = %+v", info)
	}
}

func TestSSLLabsGateway_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	gateway := NewSSLLabsGateway(testConfig(server.URL), nil)
	_, err := gateway.Info(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("error = %v, want parse error", err)
	}
}
