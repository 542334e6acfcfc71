package middleware

import (
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// CORS sets the allow headers for the configured origins and answers
// preflight requests. methods is read on the first request, after every
// route has been registered.
func CORS(allowedOrigins []string, methods func() []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimSpace(origin)] = struct{}{}
	}
	allowMethods := sync.OnceValue(func() string {
		return joinMethods(methods())
	})

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed["*"]; ok {
				c.Header("Access-Control-Allow-Origin", "*")
			} else if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}

		c.Header("Access-Control-Allow-Methods", allowMethods())
		c.Header("Access-Control-Allow-Headers", "Authorization,Content-Type")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RouteMethods lists the distinct methods of routes.
func RouteMethods(routes gin.RoutesInfo) []string {
	methods := make([]string, 0, len(routes))
	for _, route := range routes {
		methods = append(methods, route.Method)
	}
	return methods
}

func joinMethods(methods []string) string {
	set := map[string]struct{}{http.MethodOptions: {}}
	for _, method := range methods {
		set[strings.ToUpper(method)] = struct{}{}
	}
	sorted := make([]string, 0, len(set))
	for method := range set {
		sorted = append(sorted, method)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
