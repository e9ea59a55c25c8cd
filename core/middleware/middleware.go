package middleware

import (
	"errors"
	"strings"
	"time"

	"uniplanner/core/constants"
	"uniplanner/core/controller"
	apperrors "uniplanner/core/errors"
	"uniplanner/core/logger"
	"uniplanner/core/utils"

	"github.com/labstack/echo/v4"
)

type Middleware struct {
	controller.BaseController
	jwtSecret string
}

func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{
		BaseController: controller.NewBaseController(),
		jwtSecret:      jwtSecret,
	}
}

// AuthMiddleware resolves the bearer token into TokenClaims stored under
// constants.ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return m.Unauthorized(apperrors.ErrMissingAuthorizationHeader, "missing authorization header")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return m.Unauthorized(apperrors.ErrInvalidTokenFormat, "invalid authorization header format")
			}

			claims, err := utils.ValidateAndParseToken(parts[1], m.jwtSecret)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return m.Unauthorized(apperrors.ErrTokenExpired, "token expired")
				}
				return m.Unauthorized(apperrors.ErrUnauthorized, "invalid token")
			}
			if claims.Scope != "" && claims.Scope != constants.ScopeTokenAccess {
				return m.Unauthorized(apperrors.ErrUnauthorized, "invalid token scope")
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}

// RequestLogger logs one line per request.
func (m *Middleware) RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			logger.Info("HTTP:Request",
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"method", req.Method,
				"path", c.Path(),
				"status", res.Status,
				"latency_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
	}
}
