// internal/workers/assistant/route-escalation/handler.go
package routeescalation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"concierge-workers/internal/assistant/escalation"
	"concierge-workers/internal/common/errors"
	"concierge-workers/internal/common/logger"
	"concierge-workers/internal/common/metrics"
	"concierge-workers/internal/common/observability"
	"concierge-workers/internal/common/validation"
	"concierge-workers/internal/scheme"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "route-escalation"

var schema = validation.MustCompile(inputSchema)

// ProfileLoader reads scheme contacts. Handlers call it on every job.
type ProfileLoader interface {
	Load(ctx context.Context, schemeID string) (*scheme.Profile, error)
}

type Handler struct {
	config   *Config
	profiles ProfileLoader
	router   *escalation.Router
	errors   *errors.ErrorHandler
	obs      *observability.Observability
	logger   logger.Logger
}

func NewHandler(config *Config, profiles ProfileLoader, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		profiles: profiles,
		router: escalation.NewRouter(config.Enabled, log, escalation.WithRejectHook(func(reason string, _ escalation.Target) {
			metrics.ConciergeGuardRejections.WithLabelValues(reason).Inc()
		})),
		errors: errors.NewErrorHandler(log),
		obs:    obs,
		logger: log,
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

// Execute decides whether the response needs escalation guidance and appends
// it. The only error is a failed contact lookup.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	unchanged := &Output{Response: input.Response}

	if !h.router.Enabled() {
		return unchanged, nil
	}

	var out *escalation.Output
	if input.GapReason != "" {
		// A confident answer escalates only for a low-confidence gap reason.
		if input.Confidence != "" && !escalation.ShouldTrigger(input.Confidence, input.GapReason, "") {
			return unchanged, nil
		}
		contacts, err := h.loadContacts(ctx, input.SchemeID)
		if err != nil {
			return nil, err
		}
		routed, ok := h.router.CreateForGapReason(input.GapReason, input.Intent, input.SessionContext, contacts)
		if !ok {
			return unchanged, nil
		}
		out = routed
	} else {
		if !escalation.ShouldTrigger(input.Confidence, "", input.Intent) {
			return unchanged, nil
		}
		contacts, err := h.loadContacts(ctx, input.SchemeID)
		if err != nil {
			return nil, err
		}
		out = escalation.Route(escalation.Input{
			Intent:         input.Intent,
			Confidence:     input.Confidence,
			SchemeContacts: contacts,
			Session:        input.SessionContext,
		})
	}

	guidance, ok := h.router.FormatGuidance(out)
	if !ok {
		return &Output{
			Target:           out.Target,
			UrgencyLevel:     out.UrgencyLevel,
			Response:         input.Response,
			FallbackResponse: escalation.SafeFallbackResponse,
		}, nil
	}

	metrics.ConciergeEscalations.WithLabelValues(string(out.Target), string(out.UrgencyLevel)).Inc()
	h.logger.Info("escalation guidance appended", map[string]interface{}{
		"schemeId": input.SchemeID,
		"intent":   input.Intent,
		"target":   string(out.Target),
		"urgency":  string(out.UrgencyLevel),
	})

	return &Output{
		Escalated:    true,
		Target:       out.Target,
		UrgencyLevel: out.UrgencyLevel,
		Guidance:     guidance,
		Response:     escalation.JoinGuidance(input.Response, guidance),
	}, nil
}

// loadContacts treats a missing scheme as having no verified contacts; the
// router then falls back to generic guidance.
func (h *Handler) loadContacts(ctx context.Context, schemeID string) (*escalation.SchemeContacts, error) {
	if schemeID == "" {
		return nil, nil
	}

	profile, err := h.profiles.Load(ctx, schemeID)
	if err != nil {
		if errors.Normalize(err).Code == errors.ErrCodeSchemeNotFound {
			h.logger.Warn("scheme profile not found, escalating without contacts", map[string]interface{}{
				"schemeId": schemeID,
			})
			return nil, nil
		}
		return nil, err
	}
	return &profile.Contacts, nil
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
		"jobKey":    job.Key,
		"escalated": output.Escalated,
	})
}
