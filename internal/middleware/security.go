package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// SecureHeaders applies the standard security headers. In production it also
// redirects plain HTTP (honouring X-Forwarded-Proto) and locks down CSP.
func SecureHeaders(production bool) gin.HandlerFunc {
	opts := secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !production,
	}
	if production {
		opts.ContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"
		opts.STSSeconds = 31536000
	}
	sec := secure.New(opts)

	return func(c *gin.Context) {
		if err := sec.Process(c.Writer, c.Request); err != nil {
			// Process already wrote the redirect or rejection.
			c.Abort()
			return
		}
		// A redirect without error still ends the request.
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}
