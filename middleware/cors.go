package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var extensionOrigins = []string{"chrome-extension://*", "moz-extension://*", "safari-extension://*"}

// CORS returns a configured CORS middleware. With no origins configured
// every origin is allowed. Otherwise browser extension origins are
// accepted next to the configured ones.
func CORS(origins []string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = append(append([]string{}, origins...), extensionOrigins...)
		config.AllowBrowserExtensions = true
		config.AllowWildcard = true
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Range"}
	config.ExposeHeaders = []string{"Content-Length", "Content-Range", "X-Request-ID"}

	return cors.New(config)
}
