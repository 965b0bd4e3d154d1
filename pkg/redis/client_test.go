package redis

import (
	"testing"

	"github.com/bazaarly/checkout-backend/pkg/config"
)

func TestKeyNamespacing(t *testing.T) {
	c := &Client{}

	if got := c.CheckoutSessionKey("user-1"); got != "bz:checkout:session:user-1" {
		t.Fatalf("unexpected session key %q", got)
	}
	if got := c.LockKey("cron"); got != "bz:lock:cron" {
		t.Fatalf("unexpected lock key %q", got)
	}
}

func TestOptionsFromConfigRequiresURL(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error for missing redis url")
	}
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		URL:      "redis://localhost:6379/2",
		PoolSize: 7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.DB != 2 {
		t.Fatalf("unexpected db %d", opts.DB)
	}
	if opts.PoolSize != 7 {
		t.Fatalf("pool size not applied, got %d", opts.PoolSize)
	}
}
