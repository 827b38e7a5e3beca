package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BulkImport accepts a CSV upload as the request body or as a multipart "file"
// field and loads it into the named collection.
func (s *Server) BulkImport(c *gin.Context) {
	collection := strings.TrimSpace(c.Param("collection"))

	body := c.Request.Body
	if file, _, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		body = file
	}

	report, err := s.importSvc.Import(c.Request.Context(), collection, body)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}
