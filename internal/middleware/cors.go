package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// corsMethods are the methods the catalog routes answer to.
var corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}

// originPolicy decides which browser origins may call the API.
type originPolicy struct {
	any      bool
	exact    map[string]bool
	patterns [][2]string // scheme://*.domain split into {"scheme://", ".domain"}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{exact: make(map[string]bool)}
	for _, o := range origins {
		o = strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
		switch {
		case o == "":
		case o == "*":
			p.any = true
		case strings.Contains(o, "://*."):
			i := strings.Index(o, "://*.")
			p.patterns = append(p.patterns, [2]string{o[:i+3], o[i+4:]})
		default:
			p.exact[o] = true
		}
	}
	if len(p.exact) == 0 && len(p.patterns) == 0 {
		p.any = true
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if p.any {
		return true
	}
	origin = strings.ToLower(origin)
	if p.exact[origin] {
		return true
	}
	for _, pat := range p.patterns {
		if !strings.HasPrefix(origin, pat[0]) || !strings.HasSuffix(origin, pat[1]) {
			continue
		}
		sub := origin[len(pat[0]) : len(origin)-len(pat[1])]
		if sub != "" && !strings.ContainsAny(sub, "/:@") {
			return true
		}
	}
	return false
}

func methodAllowed(m string) bool {
	if m == "" {
		return true
	}
	for _, allowed := range corsMethods {
		if strings.EqualFold(m, allowed) {
			return true
		}
	}
	return false
}

// CORS sets CORS headers for the configured origins. An origin entry is an exact origin,
// a subdomain pattern such as https://*.aura.events, or "*". An empty list allows all.
// Preflights from other origins, or asking for a method the API does not serve, get 403.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := newOriginPolicy(allowedOrigins)
	methods := strings.Join(corsMethods, ", ")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := origin == "" || policy.allows(origin)
		if origin != "" && allowed {
			if policy.any {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			c.Header("Access-Control-Expose-Headers", RequestIDHeader)
			c.Header("Access-Control-Max-Age", "86400")
		}
		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		if !allowed || !methodAllowed(c.GetHeader("Access-Control-Request-Method")) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.AbortWithStatus(http.StatusNoContent)
	}
}
