package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func limitedEngine(maxBytes int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBodySize(maxBytes))
	r.POST("/sink", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "request body too large"})
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestLimitBodySizeAllowsSmallBodies(t *testing.T) {
	r := limitedEngine(64)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sink", bytes.NewReader(make([]byte, 32)))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status %d for a body under the limit", w.Code)
	}
}

func TestLimitBodySizeRejectsOversizedBodies(t *testing.T) {
	r := limitedEngine(64)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sink", bytes.NewReader(make([]byte, 128)))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status %d for a body over the limit", w.Code)
	}
}
