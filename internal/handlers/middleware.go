package handlers

import (
	"net/http"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	userIDKey    = "user_id"
	requestIDKey = "request_id"

	// local-development fallback when no API Gateway authorizer is present
	userIDHeader = "X-User-Id"
)

// RequireUser resolves the caller's identity and aborts with 401 when none
// is present. Behind API Gateway the identity is the Cognito authorizer's
// "sub" claim; locally the X-User-Id header stands in for it.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := claimSub(c)
		if userID == "" {
			userID = c.GetHeader(userIDHeader)
		}
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_identity"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func claimSub(c *gin.Context) string {
	apiCtx, ok := core.GetAPIGatewayContextFromContext(c.Request.Context())
	if !ok {
		return ""
	}
	claims, ok := apiCtx.Authorizer["claims"].(map[string]interface{})
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

// UserID returns the identity resolved by RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// RequestID tags every request with an id for log correlation, reusing the
// client's X-Request-Id when supplied.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// RequestIDFrom returns the id set by RequestID, if any.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
