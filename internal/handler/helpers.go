package handler

import (
	"net/http"
	"strconv"

	"stockledger/internal/apierror"
	"stockledger/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultListLimit = 50

// bindJSON decodes the body. Field rules are enforced by the services so that
// every caller gets the same 422; only undecodable JSON stops here with a 400.
// Returns false when a response was already written.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON body"))
		return false
	}
	return true
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid "+param))
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter. A malformed value
// writes a 400 and returns false.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid query parameter "+name))
		return 0, false
	}
	return v, true
}

func ownerID(c *gin.Context) uuid.UUID {
	return middleware.GetOwnerID(c)
}
