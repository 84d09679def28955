package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminIPAllowlist restricts the admin surface to the configured addresses.
// Entries may be single IPs or CIDR blocks; an empty list disables the
// check.
func AdminIPAllowlist(allowed []string) gin.HandlerFunc {
	if len(allowed) == 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	var nets []*net.IPNet
	var addrs []net.IP
	for _, item := range allowed {
		if _, block, err := net.ParseCIDR(item); err == nil {
			nets = append(nets, block)
			continue
		}
		if ip := net.ParseIP(item); ip != nil {
			addrs = append(addrs, ip)
		}
	}
	return func(c *gin.Context) {
		clientIP := net.ParseIP(c.ClientIP())
		for _, allowedIP := range addrs {
			if allowedIP.Equal(clientIP) {
				c.Next()
				return
			}
		}
		for _, block := range nets {
			if clientIP != nil && block.Contains(clientIP) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "ip not allowed"})
	}
}
