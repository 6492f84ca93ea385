// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file restricts callback routes to the gateway's published source
// ranges. Callbacks carry no signature, so the source address is the only
// thing tying a delivery to the gateway.
package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GatewayAllowlist admits only requests whose client IP (as resolved by Gin,
// honoring the engine's trusted proxies) falls inside one of cidrs. Invalid
// entries are skipped; an empty or fully invalid list admits everyone.
func GatewayAllowlist(cidrs []string) gin.HandlerFunc {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		if _, n, err := net.ParseCIDR(c); err == nil {
			nets = append(nets, n)
		}
	}
	if len(nets) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ip := net.ParseIP(c.ClientIP())
		if ip != nil {
			for _, n := range nets {
				if n.Contains(ip) {
					c.Next()
					return
				}
			}
		}
		LoggerFrom(c).Warn().Str("client_ip", c.ClientIP()).Msg("callback from address outside gateway allowlist")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "forbidden",
			"message":    "source address not allowed",
		})
	}
}
