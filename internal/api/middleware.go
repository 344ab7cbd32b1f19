package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"surveydash/domain/core"
	"surveydash/internal"
	apperrors "surveydash/internal/errors"
	"surveydash/internal/session"
)

const sessionKey = "session"

// requestLogger logs one line per request at debug level, errors at warn
func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status >= 500 {
			logger.Warn("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(started))
			return
		}
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(started))
	}
}

// requireSession resolves the :id parameter into a live session
func requireSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := core.ParseSessionID(c.Param("id"))
		if err != nil {
			abortWithError(c, apperrors.InvalidInput(err.Error()))
			return
		}
		sess, err := sessions.Get(id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}
