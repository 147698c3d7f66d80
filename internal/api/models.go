package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matteworks/matte-server/internal/app"
	"github.com/matteworks/matte-server/internal/segmentation"
)

type modelInfo struct {
	Name       string `json:"name"`
	InputSize  int    `json:"input_size"`
	Downloaded bool   `json:"downloaded"`
	Loaded     bool   `json:"loaded"`
}

func ListModels(c *gin.Context) {
	app := c.MustGet("app").(*app.App)
	loaded := app.Engine().Loaded()

	infos := make([]modelInfo, 0, len(segmentation.Models))
	for _, variant := range segmentation.Variants() {
		spec := segmentation.Models[variant]

		downloaded := false
		if app.Downloader() != nil {
			downloaded, _ = app.Downloader().IsDownloaded(variant)
		}

		infos = append(infos, modelInfo{
			Name:       string(variant),
			InputSize:  spec.InputSize,
			Downloaded: downloaded,
			Loaded:     loaded != nil && loaded.Model == variant,
		})
	}

	c.JSON(http.StatusOK, gin.H{"models": infos})
}

type loadModelRequest struct {
	Model  string `json:"model"`
	Device string `json:"device"`
	Debug  bool   `json:"debug"`
}

// LoadModel eagerly loads a model so the first segmentation request
// doesn't pay the cold-start cost. Load failures pass through with the
// backend's own message.
func LoadModel(c *gin.Context) {
	app := c.MustGet("app").(*app.App)

	var req loadModelRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to parse request body"})
		return
	}

	cfg := segmentation.Config{
		Model:  segmentation.ModelVariant(req.Model),
		Device: segmentation.Device(req.Device),
		Debug:  req.Debug,
	}

	if err := app.Engine().Load(c.Request.Context(), cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "loaded", "ready": app.Engine().IsReady(cfg)})
}

func ResetModel(c *gin.Context) {
	app := c.MustGet("app").(*app.App)
	app.Engine().Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
