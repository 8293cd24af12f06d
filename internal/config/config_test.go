package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8081" {
		t.Errorf("expected default port 8081, got %s", cfg.Port)
	}
	if cfg.SQLiteDBPath != "./data/splitledger.db" {
		t.Errorf("unexpected default db path: %s", cfg.SQLiteDBPath)
	}
	if cfg.AMQPQueue != "expense_created" {
		t.Errorf("unexpected default queue: %s", cfg.AMQPQueue)
	}
	if cfg.MirrorBatchSize != 25 {
		t.Errorf("unexpected default batch size: %d", cfg.MirrorBatchSize)
	}
	if cfg.StrictExactShares {
		t.Errorf("strict exact shares must default off")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("AMQP_QUEUE", "custom_queue")
	t.Setenv("MIRROR_BATCH_SIZE", "50")
	t.Setenv("CATCHUP_INTERVAL", "5m")
	t.Setenv("STRICT_EXACT_SHARES", "true")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.Port)
	}
	if cfg.AMQPQueue != "custom_queue" {
		t.Errorf("expected custom_queue, got %s", cfg.AMQPQueue)
	}
	if cfg.MirrorBatchSize != 50 {
		t.Errorf("expected batch size 50, got %d", cfg.MirrorBatchSize)
	}
	if cfg.CatchUpInterval != 5*time.Minute {
		t.Errorf("expected 5m interval, got %v", cfg.CatchUpInterval)
	}
	if !cfg.StrictExactShares {
		t.Errorf("expected strict exact shares on")
	}
}

func TestValidate(t *testing.T) {
	good := Load()
	if err := good.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"empty db path", func(c *Config) { c.SQLiteDBPath = "" }, "database path"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "AMQP URL scheme"},
		{"empty queue", func(c *Config) { c.AMQPQueue = "" }, "queue name"},
		{"batch too small", func(c *Config) { c.MirrorBatchSize = 0 }, "batch size"},
		{"interval too short", func(c *Config) { c.CatchUpInterval = time.Millisecond }, "catch-up interval"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Load()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}

	// Multiple problems are collected into one error.
	cfg := Load()
	cfg.Port = "bad"
	cfg.MirrorBatchSize = -1
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "invalid port") || !strings.Contains(err.Error(), "batch size") {
		t.Fatalf("expected both problems reported, got %v", err)
	}
}
