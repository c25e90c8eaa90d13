// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Deployment-platform variables honoured when the prefixed ones are unset.
const (
	envLegacyMode = "NODE_ENV"
	envLegacyPort = "PORT"
)

// parseEnv populates cfg from environment variables using the caarlos0/env
// library. Struct fields are mapped via their `env` and `envPrefix` tags
// defined on [StructuredConfig] and its nested types.
//
// NODE_ENV stands in for APP_ENV and PORT for SERVER_ADDRESS (as ":PORT"),
// which is what most PaaS runtimes set.
func parseEnv(cfg *StructuredConfig) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	if cfg.App.Env == "" {
		cfg.App.Env = strings.TrimSpace(os.Getenv(envLegacyMode))
	}
	if port := strings.TrimSpace(os.Getenv(envLegacyPort)); cfg.Server.HTTPAddress == "" && port != "" {
		cfg.Server.HTTPAddress = ":" + port
	}
	return nil
}
