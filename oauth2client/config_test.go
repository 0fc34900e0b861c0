package oauth2client

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "complete config",
			config: Config{
				ClientID:     "client-id",
				ClientSecret: "client-secret",
				RedirectURI:  "https://example.com/callback",
			},
		},
		{
			name: "missing client ID",
			config: Config{
				ClientSecret: "client-secret",
				RedirectURI:  "https://example.com/callback",
			},
			wantErr: "client ID",
		},
		{
			name: "missing client secret",
			config: Config{
				ClientID:    "client-id",
				RedirectURI: "https://example.com/callback",
			},
			wantErr: "client secret",
		},
		{
			name: "missing redirect URI",
			config: Config{
				ClientID:     "client-id",
				ClientSecret: "client-secret",
			},
			wantErr: "redirect URI",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("AMOCRM_CLIENT_ID", "env-client-id")
	t.Setenv("AMOCRM_CLIENT_SECRET", "env-client-secret")
	t.Setenv("AMOCRM_REDIRECT_URI", "https://example.com/callback")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.ClientID != "env-client-id" {
		t.Errorf("expected ClientID 'env-client-id', got %q", cfg.ClientID)
	}
	if cfg.ClientSecret != "env-client-secret" {
		t.Errorf("expected ClientSecret 'env-client-secret', got %q", cfg.ClientSecret)
	}
	if cfg.RedirectURI != "https://example.com/callback" {
		t.Errorf("expected RedirectURI 'https://example.com/callback', got %q", cfg.RedirectURI)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadConfigFromDotenv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "AMOCRM_CLIENT_ID=dotenv-client-id\n" +
		"AMOCRM_CLIENT_SECRET=dotenv-client-secret\n" +
		"AMOCRM_REDIRECT_URI=https://example.com/callback\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write .env file: %v", err)
	}

	// godotenv does not override existing variables; make sure they are absent.
	for _, key := range []string{"AMOCRM_CLIENT_ID", "AMOCRM_CLIENT_SECRET", "AMOCRM_REDIRECT_URI"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfigFromDotenv(envFile)
	if err != nil {
		t.Fatalf("LoadConfigFromDotenv failed: %v", err)
	}

	if cfg.ClientID != "dotenv-client-id" {
		t.Errorf("expected ClientID from dotenv file, got %q", cfg.ClientID)
	}
}

func TestLoadConfigFromDotenv_AbsentFile(t *testing.T) {
	t.Setenv("AMOCRM_CLIENT_ID", "env-client-id")
	t.Setenv("AMOCRM_CLIENT_SECRET", "env-client-secret")
	t.Setenv("AMOCRM_REDIRECT_URI", "https://example.com/callback")

	cfg, err := LoadConfigFromDotenv(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("absent dotenv file should fall back to the environment: %v", err)
	}

	if cfg.ClientID != "env-client-id" {
		t.Errorf("expected ClientID from environment, got %q", cfg.ClientID)
	}
}

func TestLoadConfig_MissingVariable(t *testing.T) {
	t.Setenv("AMOCRM_CLIENT_ID", "env-client-id")
	t.Setenv("AMOCRM_CLIENT_SECRET", "env-client-secret")

	// t.Setenv registers the restore, Unsetenv makes the variable truly absent.
	t.Setenv("AMOCRM_REDIRECT_URI", "")
	os.Unsetenv("AMOCRM_REDIRECT_URI")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing AMOCRM_REDIRECT_URI")
	}
}
