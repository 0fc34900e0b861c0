package oauth2client

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds the integration credentials issued in the amoCRM developer
// console. All three fields are required and the value set is immutable once
// the config is handed to a TokenManager.
type Config struct {
	// ClientID is the integration ID.
	ClientID string `env:"AMOCRM_CLIENT_ID" env-required:"true"`

	// ClientSecret is the integration secret key.
	ClientSecret string `env:"AMOCRM_CLIENT_SECRET" env-required:"true"`

	// RedirectURI must match the redirect URI registered for the integration.
	RedirectURI string `env:"AMOCRM_REDIRECT_URI" env-required:"true"`
}

// Validate reports the first missing credential field.
func (c Config) Validate() error {
	switch {
	case c.ClientID == "":
		return errors.New("oauth2client: config: client ID is required")
	case c.ClientSecret == "":
		return errors.New("oauth2client: config: client secret is required")
	case c.RedirectURI == "":
		return errors.New("oauth2client: config: redirect URI is required")
	}
	return nil
}

// LoadConfig reads the credentials from the AMOCRM_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("oauth2client: load config from env: %w", err)
	}
	return cfg, nil
}

// LoadConfigFromDotenv loads a dotenv file into the environment before
// reading the credentials. An absent file is not an error; path defaults
// to ".env".
func LoadConfigFromDotenv(path string) (Config, error) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("oauth2client: load dotenv file %q: %w", path, err)
	}
	return LoadConfig()
}

// MustLoadConfig is LoadConfig that panics on error. Intended for program
// startup where a missing credential is fatal anyway.
func MustLoadConfig() Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return cfg
}
