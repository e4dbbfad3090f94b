// internal/workers/assistant/record-assistant-gap/handler.go
package recordassistantgap

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"concierge-workers/internal/assistant/gaps"
	"concierge-workers/internal/common/errors"
	"concierge-workers/internal/common/logger"
	"concierge-workers/internal/common/metrics"
	"concierge-workers/internal/common/observability"
	"concierge-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "record-assistant-gap"

var schema = validation.MustCompile(inputSchema)

// Recorder persists gap log entries.
type Recorder interface {
	Record(ctx context.Context, e gaps.Entry) (*gaps.Record, error)
}

type Handler struct {
	config   *Config
	recorder Recorder
	errors   *errors.ErrorHandler
	obs      *observability.Observability
	logger   logger.Logger
}

func NewHandler(config *Config, recorder Recorder, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		recorder: recorder,
		errors:   errors.NewErrorHandler(log),
		obs:      obs,
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	done := metrics.TrackJob(TaskType)

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.run(ctx, job.Variables)
	if err != nil {
		stdErr := errors.Normalize(err)
		done(string(stdErr.Code))
		h.obs.RecordJob(ctx, TaskType, "failed", time.Since(start))
		h.errors.HandleJobError(ctx, client, job, stdErr)
		return
	}

	done("")
	h.obs.RecordJob(ctx, TaskType, "completed", time.Since(start))
	h.completeJob(ctx, client, job, output)
}

func (h *Handler) run(ctx context.Context, variables string) (*Output, error) {
	if res := schema.Validate([]byte(variables)); !res.Valid {
		return nil, errors.NewInvalidInputError(res.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}

	return h.Execute(ctx, &input)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	rec, err := h.recorder.Record(ctx, gaps.Entry{
		SchemeID:         input.SchemeID,
		UserQuestion:     input.UserQuestion,
		Intent:           input.Intent,
		Reason:           gaps.Reason(input.GapReason),
		AttemptedSources: input.AttemptedSources,
		FinalSource:      input.FinalSource,
		PlaybookUsed:     input.PlaybookUsed,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("gap recorded", map[string]interface{}{
		"schemeId":    rec.SchemeID,
		"gapLogId":    rec.ID,
		"gapReason":   string(rec.Reason),
		"fixPriority": string(rec.Fix.Priority),
	})

	return &Output{
		GapLogID:     rec.ID,
		GapReason:    string(rec.Reason),
		SuggestedFix: rec.Fix.Action,
		FixPriority:  string(rec.Fix.Priority),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":   job.Key,
		"gapLogId": output.GapLogID,
	})
}
