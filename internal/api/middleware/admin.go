package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/deploywatch/deploywatch/internal/admin"
	"github.com/deploywatch/deploywatch/internal/domain"
)

const (
	// LocalOperatorUser is the key to retrieve the operator user from context
	LocalOperatorUser = "operator_user"
	// LocalOperatorRole is the key to retrieve the operator role from context
	LocalOperatorRole = "operator_role"
)

// RoleOperator is the role required for the operator surface
const RoleOperator = "operator"

// OperatorAuthDependencies contains dependencies for operator authentication
type OperatorAuthDependencies struct {
	JWTService *admin.JWTService
	Logger     *slog.Logger
}

// OperatorAuth creates a JWT authentication middleware for the operator
// endpoints. Operator tokens are issued out of band; API keys never grant
// access here.
func OperatorAuth(deps OperatorAuthDependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			deps.Logger.Debug("missing authorization header for operator endpoint")
			return domain.ErrUnauthorized
		}

		claims, err := deps.JWTService.ValidateToken(token)
		if err != nil {
			deps.Logger.Warn("invalid JWT token", "error", err)
			return domain.ErrUnauthorized
		}

		if claims.Role != RoleOperator {
			deps.Logger.Warn("insufficient privileges", "role", claims.Role, "required", RoleOperator)
			return domain.ErrForbidden
		}

		c.Locals(LocalOperatorUser, claims.UserID)
		c.Locals(LocalOperatorRole, claims.Role)

		deps.Logger.Debug("operator authenticated",
			"user_id", claims.UserID,
			"email", claims.Email,
		)

		return c.Next()
	}
}

// GetOperatorUserID retrieves the operator user ID from context
func GetOperatorUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := c.Locals(LocalOperatorUser).(uuid.UUID)
	if !ok {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return userID, nil
}

// IsOperator checks if the current request is from an authenticated operator
func IsOperator(c *fiber.Ctx) bool {
	role, ok := c.Locals(LocalOperatorRole).(string)
	return ok && role == RoleOperator
}
