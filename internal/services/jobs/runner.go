package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/matteworks/matte-server/internal/db/models"
	"github.com/matteworks/matte-server/internal/db/repository"
	"github.com/matteworks/matte-server/internal/mq"
	"github.com/matteworks/matte-server/internal/segmentation"
	"github.com/matteworks/matte-server/internal/services/fileuploader"
	"github.com/matteworks/matte-server/internal/types"
	"github.com/matteworks/matte-server/internal/utils/webhookutil"
)

const MaxWebhookAttempts = 3

// Runner drains the segmentation topic and processes jobs one at a time. The
// engine serializes inference anyway, so a single consumer loop is enough.
type Runner struct {
	mq       mq.MQ
	engine   *segmentation.Engine
	uploader *fileuploader.Uploader
	jobs     repository.IJobRepository
	images   repository.IImageRepository
	logger   *zap.Logger
	topic    string
}

func NewRunner(
	queue mq.MQ,
	engine *segmentation.Engine,
	uploader *fileuploader.Uploader,
	jobs repository.IJobRepository,
	images repository.IImageRepository,
	logger *zap.Logger,
	topic string,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		mq:       queue,
		engine:   engine,
		uploader: uploader,
		jobs:     jobs,
		images:   images,
		logger:   logger.Named("jobs"),
		topic:    topic,
	}
}

// Start blocks until the context is cancelled or the queue closes.
func (r *Runner) Start(ctx context.Context) error {
	for {
		message, err := r.mq.Receive(ctx, r.topic)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to receive message from queue: %w", err)
		}

		data, err := r.mq.GetMessageData(message)
		if err != nil {
			r.logger.Error("failed to read message payload", zap.Error(err))
			continue
		}

		var job types.SegmentJob
		if err := msgpack.Unmarshal(data, &job); err != nil {
			r.logger.Error("failed to unmarshal job", zap.Error(err))
			if err := r.mq.Ack(r.topic, message); err != nil {
				r.logger.Error("failed to ack message", zap.Error(err))
			}
			continue
		}

		r.process(ctx, &job)

		if err := r.mq.Ack(r.topic, message); err != nil {
			r.logger.Error("failed to ack message", zap.Error(err))
		}
	}
}

func (r *Runner) process(ctx context.Context, job *types.SegmentJob) {
	jobID, err := uuid.Parse(job.ID)
	if err != nil {
		r.logger.Error("job has malformed id", zap.String("id", job.ID), zap.Error(err))
		return
	}

	if err := r.jobs.UpdateJobStatusByID(ctx, job.ID, models.JobStatusProgress); err != nil {
		r.logger.Error("failed to mark job in progress", zap.String("id", job.ID), zap.Error(err))
	}

	result, err := r.engine.Process(ctx, job.Image, job.Params.Config())
	if err != nil {
		r.fail(ctx, job, err)
		return
	}

	response := make(chan string, 1)
	r.uploader.UploadBytes(result.Data, extensionFor(result.MediaType), false, response)
	url := <-response
	if url == "" {
		r.fail(ctx, job, errors.New("failed to upload result"))
		return
	}

	image := &models.Image{
		ID:        uuid.New(),
		JobID:     jobID,
		Url:       url,
		MediaType: result.MediaType,
		Width:     result.Width,
		Height:    result.Height,
	}
	if _, err := r.images.Create(ctx, image); err != nil {
		r.logger.Error("failed to record image", zap.String("id", job.ID), zap.Error(err))
	}

	if err := r.jobs.CompleteJobByID(ctx, job.ID, url); err != nil {
		r.logger.Error("failed to mark job completed", zap.String("id", job.ID), zap.Error(err))
	}

	r.logger.Info("job completed", zap.String("id", job.ID), zap.String("url", url))

	r.notify(ctx, job, &types.SegmentResult{
		ID:     job.ID,
		Status: string(models.JobStatusCompleted),
		Url:    url,
	})
}

func (r *Runner) fail(ctx context.Context, job *types.SegmentJob, cause error) {
	r.logger.Error("job failed", zap.String("id", job.ID), zap.Error(cause))

	if err := r.jobs.FailJobByID(ctx, job.ID, cause.Error()); err != nil {
		r.logger.Error("failed to mark job failed", zap.String("id", job.ID), zap.Error(err))
	}

	r.notify(ctx, job, &types.SegmentResult{
		ID:     job.ID,
		Status: string(models.JobStatusFailed),
		Error:  cause.Error(),
	})
}

func (r *Runner) notify(ctx context.Context, job *types.SegmentJob, result *types.SegmentResult) {
	if job.WebhookUrl == "" {
		return
	}

	if err := webhookutil.InvokeWithRetries(ctx, job.WebhookUrl, *result, MaxWebhookAttempts); err != nil {
		r.logger.Error("webhook delivery failed", zap.String("id", job.ID), zap.Error(err))
	}
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case segmentation.FormatJPEG:
		return ".jpg"
	case segmentation.FormatWebP:
		return ".webp"
	default:
		return ".png"
	}
}
