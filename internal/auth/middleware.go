package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/sengkeat-dex/orderbook-svc/pkg/errors"
)

// SubjectKey is the gin context key the bearer middleware stores the
// validated trader subject under.
const SubjectKey = "trader_sub"

// RequireBearer validates the Authorization header on every request it
// guards, storing the token's subject in the gin context for handlers to
// compare against path/body trader identifiers (§4.7).
func RequireBearer(svc *Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			respondError(c, apierrors.New(apierrors.CodeUnauthorized, "missing or malformed bearer token"))
			return
		}

		sub, err := svc.ValidateBearer(parts[1])
		if err != nil {
			logger.Debug("bearer validation failed", zap.Error(err))
			respondError(c, err)
			return
		}

		c.Set(SubjectKey, sub)
		c.Next()
	}
}

// Subject reads the validated subject a prior RequireBearer call stored.
func Subject(c *gin.Context) string {
	sub, _ := c.Get(SubjectKey)
	s, _ := sub.(string)
	return s
}

func respondError(c *gin.Context, err error) {
	se, ok := apierrors.As(err)
	if !ok {
		se = apierrors.New(apierrors.CodeInternalError, "internal error")
	}
	c.AbortWithStatusJSON(se.HTTPStatus(), gin.H{"code": se.Code, "message": se.Message})
}
