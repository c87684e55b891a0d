package resilience

import (
	"fmt"
	"testing"
	"time"

	"skilllink/internal/config"
)

func enabledConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}
}

func TestDisabledBreakerExecutesDirectly(t *testing.T) {
	b := NewBreaker[int]("parser", config.CircuitBreakerConfig{}, nil)
	if b != nil {
		t.Fatal("expected nil breaker for disabled configuration")
	}

	got, err := b.Execute(func() (int, error) { return 42, nil })
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	if !b.Healthy() {
		t.Error("disabled breaker must report healthy")
	}
	stats := b.Stats()
	if stats["enabled"] != false {
		t.Errorf("expected enabled=false in stats, got %v", stats["enabled"])
	}
}

func TestBreakerNameAndInitialState(t *testing.T) {
	b := NewBreaker[string]("analysis", enabledConfig(), nil)
	if b == nil {
		t.Fatal("expected breaker for enabled configuration")
	}

	stats := b.Stats()
	name, ok := stats["name"].(string)
	if !ok {
		t.Fatal("breaker name not found in stats")
	}
	if name != "svc-analysis" {
		t.Errorf("expected name svc-analysis, got %s", name)
	}

	state, ok := stats["state"].(string)
	if !ok {
		t.Fatal("breaker state not found in stats")
	}
	if state != "closed" {
		t.Errorf("expected initial state closed, got %s", state)
	}
	if !b.Healthy() {
		t.Error("fresh breaker must report healthy")
	}
}

func TestBreakerOpensAfterFailureThreshold(t *testing.T) {
	cfg := enabledConfig()
	cfg.MinRequests = 3
	cfg.FailureThreshold = 0.6
	b := NewBreaker[int]("recommend", cfg, nil)

	boom := fmt.Errorf("upstream down")
	for i := 0; i < 3; i++ {
		if _, err := b.Execute(func() (int, error) { return 0, boom }); err == nil {
			t.Fatal("expected failure to propagate")
		}
	}

	if b.Healthy() {
		t.Error("breaker should be open after consecutive failures")
	}

	if _, err := b.Execute(func() (int, error) { return 1, nil }); err == nil {
		t.Error("open breaker must reject calls")
	}
}

func TestBreakerPassesSuccessThrough(t *testing.T) {
	b := NewBreaker[string]("parser", enabledConfig(), nil)

	got, err := b.Execute(func() (string, error) { return "ok", nil })
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got != "ok" {
		t.Errorf("expected ok, got %s", got)
	}
	if !b.Healthy() {
		t.Error("breaker should stay closed on success")
	}
}
