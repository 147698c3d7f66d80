package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/matteworks/matte-server/internal/app"
	"github.com/matteworks/matte-server/internal/types"
)

func UploadFile(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to get file"})
		return
	}

	fileBytes, err := readFileContent(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to read file"})
		return
	}

	response := make(chan string, 1)
	app.Uploader().UploadBytes(fileBytes, filepath.Ext(file.Filename), false, response)

	url := <-response
	if url == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to upload file"})
		return
	}

	c.JSON(http.StatusOK, types.UploadResponse{Url: url})
}

func GetFile(c *gin.Context) {
	app := c.MustGet("app").(*app.App)
	filename := c.Param("filename")

	uploader := app.Uploader()
	if uploader == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "file storage is not configured"})
		return
	}

	path, err := uploader.ResolveFile(filename, "", false)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "file not found"})
		return
	}

	c.File(path)
}

func readFileContent(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
