package dataflows

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Hour, true)

	payload := map[string]int{"a": 1, "b": 2}
	if err := cm.Set("test", "method", "key", payload); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got map[string]int
	if !cm.Get("test", "method", "key", &got) {
		t.Fatal("expected cache hit")
	}
	if got["a"] != 1 || got["b"] != 2 {
		t.Fatalf("unexpected payload: %v", got)
	}

	if cm.Get("test", "method", "other-key", &got) {
		t.Fatal("expected miss for different params")
	}
}

func TestCacheDisabled(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Hour, false)

	if err := cm.Set("test", "method", "key", 42); err != nil {
		t.Fatalf("Set on disabled cache: %v", err)
	}
	var got int
	if cm.Get("test", "method", "key", &got) {
		t.Fatal("disabled cache must never hit")
	}
}

func TestCacheExpiry(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Nanosecond, true)

	if err := cm.Set("test", "method", "key", 42); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)

	var got int
	if cm.Get("test", "method", "key", &got) {
		t.Fatal("expired entry must miss")
	}
}

func TestWithRetryEventualSuccess(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	calls := 0
	err := WithRetry(cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls: want 3, got %d", calls)
	}
}

func TestWithRetryExhausted(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	calls := 0
	err := WithRetry(cfg, func() error {
		calls++
		return errors.New("always fails")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("calls: want 3, got %d", calls)
	}
}

func TestValidateSymbol(t *testing.T) {
	if err := ValidateSymbol("600519"); err != nil {
		t.Errorf("valid symbol rejected: %v", err)
	}
	if err := ValidateSymbol("  "); err == nil {
		t.Error("blank symbol accepted")
	}
	if err := ValidateSymbol("WAY-TOO-LONG-SYMBOL"); err == nil {
		t.Error("oversized symbol accepted")
	}
}

func TestQualifySymbol(t *testing.T) {
	cases := map[string]string{
		"600519":    "600519.SH",
		"000001":    "000001.SZ",
		"300750":    "300750.SZ",
		"700.HK":    "700.HK",
		"600519.SH": "600519.SH",
		"aapl":      "AAPL",
	}
	for in, want := range cases {
		if got := QualifySymbol(in); got != want {
			t.Errorf("QualifySymbol(%q): want %q, got %q", in, want, got)
		}
	}
}

func TestStripHTML(t *testing.T) {
	in := `<a href="https://example.com">Profits rise</a>&nbsp;<font color="#6f6f6f">Example News</font>`
	got := stripHTML(in)
	if got == "" || got == in {
		t.Fatalf("stripHTML failed: %q", got)
	}
	if want := "Profits rise"; !strings.Contains(got, want) {
		t.Fatalf("want substring %q in %q", want, got)
	}
}
