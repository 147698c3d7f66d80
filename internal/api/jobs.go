package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matteworks/matte-server/internal/app"
)

func GetJob(c *gin.Context) {
	app := c.MustGet("app").(*app.App)
	id := c.Param("id")

	job, err := app.JobRepository.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"message": "job not found"})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch job"})
		return
	}

	images, err := app.ImageRepository.ListByJobID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch job images"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job, "images": images})
}
