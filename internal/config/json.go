package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig is the on-disk shape of the JSON config file.
type StructuredJSONConfig struct {
	App struct {
		Env       string `json:"env"`
		Name      string `json:"name"`
		StaticDir string `json:"static_dir"`
		Version   string `json:"version"`
	} `json:"app"`

	Auth struct {
		TokenSignKey  string   `json:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer"`
		TokenDuration Duration `json:"token_duration"`
		CookieName    string   `json:"cookie_name"`
	} `json:"auth"`

	Security struct {
		BodyLimit    int64    `json:"body_limit"`
		CORSOrigins  []string `json:"cors_origins"`
		HPPWhitelist []string `json:"hpp_whitelist"`
	} `json:"security"`

	RateLimit struct {
		Max        int      `json:"max"`
		Window     Duration `json:"window"`
		RedisURL   string   `json:"redis_url"`
		TrustProxy bool     `json:"trust_proxy"`
	} `json:"rate_limit"`

	Webhook struct {
		Secret    string   `json:"secret"`
		Tolerance Duration `json:"tolerance"`
		MaxBytes  int64    `json:"max_bytes"`
	} `json:"webhook"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db"`

		Files struct {
			SnapshotFile string `json:"snapshot_file"`
			SeedDir      string `json:"seed_dir"`
		} `json:"files"`
	} `json:"storage"`

	Server struct {
		HTTPAddress     string   `json:"http_address"`
		ReadTimeout     Duration `json:"read_timeout"`
		WriteTimeout    Duration `json:"write_timeout"`
		ShutdownTimeout Duration `json:"shutdown_timeout"`
	} `json:"server"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			Env:       jsonCfg.App.Env,
			Name:      jsonCfg.App.Name,
			StaticDir: jsonCfg.App.StaticDir,
			Version:   jsonCfg.App.Version,
		},
		Auth: Auth{
			TokenSignKey:  jsonCfg.Auth.TokenSignKey,
			TokenIssuer:   jsonCfg.Auth.TokenIssuer,
			TokenDuration: time.Duration(jsonCfg.Auth.TokenDuration),
			CookieName:    jsonCfg.Auth.CookieName,
		},
		Security: Security{
			BodyLimit:    jsonCfg.Security.BodyLimit,
			CORSOrigins:  jsonCfg.Security.CORSOrigins,
			HPPWhitelist: jsonCfg.Security.HPPWhitelist,
		},
		RateLimit: RateLimit{
			Max:        jsonCfg.RateLimit.Max,
			Window:     time.Duration(jsonCfg.RateLimit.Window),
			RedisURL:   jsonCfg.RateLimit.RedisURL,
			TrustProxy: jsonCfg.RateLimit.TrustProxy,
		},
		Webhook: Webhook{
			Secret:    jsonCfg.Webhook.Secret,
			Tolerance: time.Duration(jsonCfg.Webhook.Tolerance),
			MaxBytes:  jsonCfg.Webhook.MaxBytes,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Files: Files{
				SnapshotFile: jsonCfg.Storage.Files.SnapshotFile,
				SeedDir:      jsonCfg.Storage.Files.SeedDir,
			},
		},
		Server: Server{
			HTTPAddress:     jsonCfg.Server.HTTPAddress,
			ReadTimeout:     time.Duration(jsonCfg.Server.ReadTimeout),
			WriteTimeout:    time.Duration(jsonCfg.Server.WriteTimeout),
			ShutdownTimeout: time.Duration(jsonCfg.Server.ShutdownTimeout),
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
