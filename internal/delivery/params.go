package delivery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// pathID parses a positive integer path parameter, answering 400 otherwise.
func pathID(c *gin.Context, log *logrus.Logger, name, what string) (int, bool) {
	raw := c.Param(name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		log.Warnf("Invalid %s ID parameter: %s", what, raw)
		ErrorResponse(c, http.StatusBadRequest, "Invalid "+what+" ID format")
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
