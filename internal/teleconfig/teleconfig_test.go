package teleconfig

import "testing"

func TestBuildDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123456:ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghij")
	t.Setenv("MAX_STORAGE_SIZE", "")
	t.Setenv("ALLOWED_UPDATES", "")

	cfg, err := build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.env.MaxStorageSize != defaultMaxStorageSize {
		t.Fatalf("MaxStorageSize = %d, want default %d", cfg.env.MaxStorageSize, defaultMaxStorageSize)
	}
	if cfg.env.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("APIBaseURL = %q, want default", cfg.env.APIBaseURL)
	}
}

func TestBuildMissingTokenErrors(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	if _, err := build(); err == nil {
		t.Fatal("expected error for missing BOT_TOKEN")
	}
}

func TestBuildParsesAllowedUpdates(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123456:ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghij")
	t.Setenv("ALLOWED_UPDATES", "message, callback_query ,inline_query")

	cfg, err := build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []string{"message", "callback_query", "inline_query"}
	if len(cfg.env.AllowedUpdates) != len(want) {
		t.Fatalf("AllowedUpdates = %v, want %v", cfg.env.AllowedUpdates, want)
	}
	for i, w := range want {
		if cfg.env.AllowedUpdates[i] != w {
			t.Fatalf("AllowedUpdates[%d] = %q, want %q", i, cfg.env.AllowedUpdates[i], w)
		}
	}
}

func TestBuildInvalidIntFallsBackWithWarning(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123456:ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghij")
	t.Setenv("MAX_STORAGE_SIZE", "not-a-number")

	cfg, err := build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.env.MaxStorageSize != defaultMaxStorageSize {
		t.Fatalf("MaxStorageSize = %d, want default fallback", cfg.env.MaxStorageSize)
	}
	if len(cfg.warnings) == 0 {
		t.Fatal("expected a warning for the invalid value")
	}
}
