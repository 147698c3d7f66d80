package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/matteworks/matte-server/internal/app"
	"github.com/matteworks/matte-server/internal/config"
	"github.com/matteworks/matte-server/internal/db/models"
	"github.com/matteworks/matte-server/internal/db/repository"
	"github.com/matteworks/matte-server/internal/mq"
	"github.com/matteworks/matte-server/internal/segmentation"
	"github.com/matteworks/matte-server/internal/types"
)

// SegmentImageSync runs the matting pipeline inline and streams the
// composed image back in the response body.
func SegmentImageSync(c *gin.Context) {
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

	params, err := parseSegmentParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if !screenImage(c, app, fileBytes) {
		return
	}

	result, err := app.Engine().Process(c.Request.Context(), fileBytes, params.Config())
	if err != nil {
		writeSegmentError(c, err)
		return
	}

	c.Data(http.StatusOK, result.MediaType, result.Data)
}

// SegmentImageAsync queues the request and returns immediately. Progress
// is observable via GET /jobs/:id and, optionally, a webhook.
func SegmentImageAsync(c *gin.Context) {
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

	params, err := parseSegmentParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if !screenImage(c, app, fileBytes) {
		return
	}

	input, err := json.Marshal(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to record job"})
		return
	}

	job := &models.Job{
		ID:       uuid.New(),
		Status:   models.JobStatusQueued,
		Filename: file.Filename,
		Input:    input,
	}

	// Marshal before the job row exists, so a marshalling failure
	// leaves nothing behind.
	payload, err := msgpack.Marshal(&types.SegmentJob{
		ID:         job.ID.String(),
		Filename:   file.Filename,
		Image:      fileBytes,
		Params:     *params,
		WebhookUrl: params.WebhookUrl,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to queue job"})
		return
	}

	if _, err := app.JobRepository.Create(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to record job"})
		return
	}

	if err := enqueueSegmentJob(c.Request.Context(), app.MQ(), app.JobRepository, job.ID.String(), payload); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to queue job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": models.JobStatusQueued, "id": job.ID.String()})
}

// enqueueSegmentJob publishes the payload and, when the queue rejects
// it, fails the already-recorded job. Without that the row would stay
// queued forever with no consumer ever seeing it.
func enqueueSegmentJob(ctx context.Context, queue mq.MQ, jobs repository.IJobRepository, jobID string, payload []byte) error {
	err := queue.Publish(ctx, config.DefaultSegmentTopic, payload)
	if err == nil {
		return nil
	}

	if ferr := jobs.FailJobByID(ctx, jobID, "failed to queue job"); ferr != nil {
		return fmt.Errorf("failed to record queue error for job %s: %v: %w", jobID, ferr, err)
	}

	return err
}

func parseSegmentParams(c *gin.Context) (*types.SegmentParamsRequest, error) {
	params := &types.SegmentParamsRequest{
		Model:      c.PostForm("model"),
		Device:     c.PostForm("device"),
		Format:     c.PostForm("format"),
		Type:       c.PostForm("type"),
		WebhookUrl: c.PostForm("webhook_url"),
	}

	if v := c.PostForm("quality"); v != "" {
		quality, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New("quality must be a number between 0 and 1")
		}
		params.Quality = quality
	}

	if v := c.PostForm("feather"); v != "" {
		feather, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New("feather must be a number")
		}
		params.Feather = feather
	}

	if v := c.PostForm("debug"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("debug must be a boolean")
		}
		params.Debug = debug
	}

	return params, nil
}

// screenImage runs the safety filter, writing the rejection response
// itself. Returns true when the image may proceed.
func screenImage(c *gin.Context, app *app.App, image []byte) bool {
	result, err := app.SafetyFilter.FilterImage(c.Request.Context(), image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to screen image"})
		return false
	}

	if !result.Accepted {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": result.Reason})
		return false
	}

	return true
}

// writeSegmentError maps pipeline errors onto HTTP statuses. Invalid
// input is the caller's fault; inference failures surface only their
// generic message; anything else, load failures included, passes
// through as-is.
func writeSegmentError(c *gin.Context, err error) {
	if errors.Is(err, segmentation.ErrInvalidImage) {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
}
