package http

import (
	"github.com/MKhiriev/go-natours/internal/pipeline"
	"github.com/unrolled/secure"
)

// securityHeaders sets the usual hardening headers. Strict-Transport-Security
// is only sent over TLS and never in development.
func (h *Handler) securityHeaders() pipeline.Filter {
	s := secure.New(secure.Options{
		ContentTypeNosniff:            true,
		CustomFrameOptionsValue:       "SAMEORIGIN",
		CustomBrowserXssValue:         "0",
		ReferrerPolicy:                "no-referrer",
		STSSeconds:                    15552000,
		STSIncludeSubdomains:          true,
		CrossOriginOpenerPolicy:       "same-origin",
		CrossOriginResourcePolicy:     "same-origin",
		XDNSPrefetchControl:           "off",
		XPermittedCrossDomainPolicies: "none",
		ContentSecurityPolicy:         "default-src 'self'; base-uri 'self'; font-src 'self' https: data:; img-src 'self' data:; object-src 'none'; script-src 'self'; style-src 'self' https: 'unsafe-inline'; frame-ancestors 'self'",
		IsDevelopment:                 h.cfg.App.IsDevelopment(),
	})
	return pipeline.FromMiddleware("security", s.Handler)
}
