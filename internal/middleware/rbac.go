package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/zvms-dev/zvms-api/internal/utils"
)

// RequireRole ensures that the authenticated user holds at least one of the
// allowed roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		for _, role := range rolesFromLocals(c.Locals("user_roles")) {
			if _, ok := allowed[role]; ok {
				return c.Next()
			}
		}
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}
}

func rolesFromLocals(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		roles := make([]string, 0, len(v))
		for _, role := range v {
			normalized := strings.ToLower(strings.TrimSpace(role))
			if normalized != "" {
				roles = append(roles, normalized)
			}
		}
		return roles
	case string:
		normalized := strings.ToLower(strings.TrimSpace(v))
		if normalized == "" {
			return nil
		}
		return []string{normalized}
	case fmt.Stringer:
		return rolesFromLocals(v.String())
	default:
		return nil
	}
}
