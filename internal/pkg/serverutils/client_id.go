package serverutils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ClientID identifies the caller for rate limiting: the first
// X-Forwarded-For entry when present, else the connection's IP.
func ClientID(ctx *fiber.Ctx) string {
	if fwd := ctx.Get(fiber.HeaderXForwardedFor); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	return ctx.IP()
}
