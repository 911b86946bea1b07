package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./repertoire.db" {
			t.Errorf("expected database path ./repertoire.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Server.ReadTimeout.Duration != 15*time.Second {
			t.Errorf("expected read timeout 15s, got %v", config.Server.ReadTimeout)
		}

		if config.Auth.Header != "X-Auth-Email" {
			t.Errorf("expected auth header X-Auth-Email, got %s", config.Auth.Header)
		}

		if config.Stats.RecentLimit != 10 {
			t.Errorf("expected recent limit 10, got %d", config.Stats.RecentLimit)
		}

		if config.Pagination.PerPage != 9 {
			t.Errorf("expected 9 songs per page, got %d", config.Pagination.PerPage)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 8080
write_timeout = "1m"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.Server.WriteTimeout.Duration != time.Minute {
			t.Errorf("expected write timeout 1m, got %v", config.Server.WriteTimeout)
		}

		if config.Auth.Header != "X-Auth-Email" {
			t.Errorf("missing sections should keep defaults, got auth header %q", config.Auth.Header)
		}
	})

	t.Run("LoadConfig invalid duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[server]\nread_timeout = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for invalid duration")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("REPERTOIRE_SERVER_PORT", "9090")
		t.Setenv("REPERTOIRE_DATABASE_PATH", "/env/path.db")
		t.Setenv("REPERTOIRE_SERVER_SHUTDOWN_TIMEOUT", "3s")

		config := DefaultConfig()
		if err := ApplyEnv(config); err != nil {
			t.Fatalf("failed to apply env: %v", err)
		}

		if config.Server.Port != 9090 {
			t.Errorf("expected port 9090 from env, got %d", config.Server.Port)
		}

		if config.Database.Path != "/env/path.db" {
			t.Errorf("expected database path from env, got %s", config.Database.Path)
		}

		if config.Server.ShutdownTimeout.Duration != 3*time.Second {
			t.Errorf("expected shutdown timeout 3s, got %v", config.Server.ShutdownTimeout)
		}

		if config.Server.Host != "127.0.0.1" {
			t.Errorf("unset env should keep defaults, got host %s", config.Server.Host)
		}
	})
}
