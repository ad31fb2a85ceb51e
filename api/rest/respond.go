package rest

import (
	"net/http"
	"strconv"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/apperr"
	"github.com/gin-gonic/gin"
)

// writeErr maps a domain error to its HTTP status and client-safe message.
func writeErr(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err)})
}

// pathID parses a numeric path parameter; ok=false means the response has
// already been written.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
