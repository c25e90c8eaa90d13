// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"fmt"
)

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup. Every violated group
// is reported.
func (cfg *StructuredConfig) validate() error {
	var errs []error

	if cfg.App.Env != EnvDevelopment && cfg.App.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("%w: mode %q is neither %q nor %q",
			ErrInvalidAppConfigs, cfg.App.Env, EnvDevelopment, EnvProduction))
	}

	if cfg.Auth.TokenSignKey == "" || cfg.Auth.TokenDuration <= 0 {
		errs = append(errs, ErrInvalidAuthConfigs)
	}

	if cfg.Security.BodyLimit <= 0 {
		errs = append(errs, ErrInvalidSecurityConfigs)
	}

	if cfg.RateLimit.Max <= 0 || cfg.RateLimit.Window <= 0 {
		errs = append(errs, ErrInvalidRateLimitConfigs)
	}

	if cfg.Server.HTTPAddress == "" {
		errs = append(errs, ErrInvalidServerConfigs)
	}

	return errors.Join(errs...)
}
