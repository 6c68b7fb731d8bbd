package security

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// HeadersConfig holds the response security headers.
type HeadersConfig struct {
	CSP string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginResource string
	CacheControl        string
}

// DefaultHeadersConfig suits a JSON API that never serves documents.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:     "same-origin",
		CrossOriginResource:   "same-site",
		CacheControl:          "no-store",
	}
}

// Headers returns a gin handler applying config to every response.
func Headers(config HeadersConfig) gin.HandlerFunc {
	hsts := ""
	if config.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", config.HSTSMaxAge)
		if config.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
	}

	set := func(c *gin.Context, key, value string) {
		if value != "" {
			c.Header(key, value)
		}
	}

	return func(c *gin.Context) {
		set(c, "Content-Security-Policy", config.CSP)
		set(c, "X-Frame-Options", config.XFrameOptions)
		set(c, "X-Content-Type-Options", config.XContentTypeOptions)
		set(c, "Referrer-Policy", config.ReferrerPolicy)
		set(c, "Permissions-Policy", config.PermissionsPolicy)
		set(c, "Cross-Origin-Opener-Policy", config.CrossOriginOpener)
		set(c, "Cross-Origin-Resource-Policy", config.CrossOriginResource)
		set(c, "Cache-Control", config.CacheControl)
		// HSTS only means something over TLS.
		if c.Request.TLS != nil {
			set(c, "Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}
