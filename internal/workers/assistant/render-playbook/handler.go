// internal/workers/assistant/render-playbook/handler.go
package renderplaybook

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"concierge-workers/internal/assistant/playbook"
	"concierge-workers/internal/common/errors"
	"concierge-workers/internal/common/logger"
	"concierge-workers/internal/common/metrics"
	"concierge-workers/internal/common/observability"
	"concierge-workers/internal/common/validation"
	"concierge-workers/internal/scheme"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "render-playbook"

var schema = validation.MustCompile(inputSchema)

type ProfileLoader interface {
	Load(ctx context.Context, schemeID string) (*scheme.Profile, error)
}

type Handler struct {
	config   *Config
	profiles ProfileLoader
	errors   *errors.ErrorHandler
	obs      *observability.Observability
	logger   logger.Logger
}

func NewHandler(config *Config, profiles ProfileLoader, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		profiles: profiles,
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

// Execute renders the playbook for the requested topic, or for the topic
// detected in the query. A query that matches no topic is not an error; the
// output is simply unmatched.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	topic, err := resolveTopic(input)
	if err != nil {
		return nil, err
	}
	if topic == "" {
		return &Output{
			SchemeFieldsAvailable: []string{},
			SchemeFieldsMissing:   []string{},
		}, nil
	}

	schemeCtx, err := h.loadContext(ctx, input.SchemeID)
	if err != nil {
		return nil, err
	}

	resp, ok := playbook.GenerateResponse(topic, schemeCtx)
	if !ok {
		return nil, errors.NewPlaybookNotFoundError(string(topic))
	}

	content := resp.Content
	switch {
	case input.Section != "":
		section, ok := playbook.RenderSection(topic, input.Section, schemeCtx)
		if !ok {
			return nil, errors.NewPlaybookNotFoundError(string(topic)).
				WithMetadata("section", input.Section)
		}
		content = section
	case input.MaxSections > 0:
		content, _ = playbook.RenderByTopic(topic, schemeCtx, playbook.RenderOptions{MaxSections: input.MaxSections})
	}

	metrics.ConciergePlaybookRenders.WithLabelValues(string(topic), strconv.FormatBool(resp.IsGenericFallback)).Inc()

	return &Output{
		Matched:               true,
		Topic:                 topic,
		Content:               content,
		IsGenericFallback:     resp.IsGenericFallback,
		SchemeFieldsAvailable: resp.SchemeFieldsAvailable,
		SchemeFieldsMissing:   resp.SchemeFieldsMissing,
		SourceHint:            playbook.GenericSourceHint,
	}, nil
}

func resolveTopic(input *Input) (playbook.Topic, error) {
	if input.Topic != "" {
		topic := playbook.Topic(input.Topic)
		if _, ok := playbook.Get(topic); !ok {
			return "", errors.NewPlaybookNotFoundError(input.Topic)
		}
		return topic, nil
	}
	topic, _ := playbook.DetectTopic(input.Query)
	return topic, nil
}

// loadContext renders generically for an unknown scheme rather than failing.
func (h *Handler) loadContext(ctx context.Context, schemeID string) (playbook.SchemeContext, error) {
	if schemeID == "" {
		return playbook.SchemeContext{}, nil
	}

	profile, err := h.profiles.Load(ctx, schemeID)
	if err != nil {
		if errors.Normalize(err).Code == errors.ErrCodeSchemeNotFound {
			h.logger.Warn("scheme profile not found, rendering generic playbook", map[string]interface{}{
				"schemeId": schemeID,
			})
			return playbook.SchemeContext{}, nil
		}
		return playbook.SchemeContext{}, err
	}
	return profile.Context, nil
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
		"jobKey":  job.Key,
		"topic":   string(output.Topic),
		"matched": output.Matched,
	})
}
