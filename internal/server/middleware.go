package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scriptly/internal/identity"
)

const subjectContextKey = "subject_id"

// SubjectAuthMiddleware resolves the caller's subject id from the
// Authorization header and aborts unauthenticated requests.
func SubjectAuthMiddleware(resolver identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))

		subject, err := resolver.Resolve(c.Request.Context(), bearer)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(subjectContextKey, subject)
		c.Next()
	}
}

func subjectID(c *gin.Context) string {
	return c.GetString(subjectContextKey)
}
