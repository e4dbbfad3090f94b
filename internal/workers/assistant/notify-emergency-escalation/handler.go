// internal/workers/assistant/notify-emergency-escalation/handler.go
package notifyemergencyescalation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"concierge-workers/internal/assistant/escalation"
	"concierge-workers/internal/common/aws"
	"concierge-workers/internal/common/errors"
	"concierge-workers/internal/common/logger"
	"concierge-workers/internal/common/metrics"
	"concierge-workers/internal/common/observability"
	"concierge-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const TaskType = "notify-emergency-escalation"

const dedupeKeyPrefix = "concierge:alert:"

var schema = validation.MustCompile(inputSchema)

type Handler struct {
	config *Config
	redis  redis.Cmdable
	sns    aws.SNSAPI
	errors *errors.ErrorHandler
	obs    *observability.Observability
	logger logger.Logger
}

func NewHandler(config *Config, rdb redis.Cmdable, snsAPI aws.SNSAPI, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		redis:  rdb,
		sns:    snsAPI,
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

// Execute publishes one ops alert per scheme and issue inside the dedupe
// window. Non-emergency escalations pass through untouched.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UrgencyLevel != escalation.UrgencyEmergency {
		return &Output{Status: StatusSkipped}, nil
	}

	issueKey := IssueKey(input)
	if !h.config.Enabled {
		h.logger.Warn("emergency escalation not alerted, notifications disabled", map[string]interface{}{
			"schemeId": input.SchemeID,
			"issueKey": issueKey,
		})
		metrics.ConciergeEmergencyAlerts.WithLabelValues(StatusDisabled).Inc()
		return &Output{Status: StatusDisabled, IssueKey: issueKey}, nil
	}

	key := DedupeKey(input.SchemeID, issueKey)
	fresh, err := h.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), h.config.DedupeWindow).Result()
	if err != nil {
		return nil, errors.NewAlertDedupeFailedError(err).WithMetadata("schemeId", input.SchemeID)
	}
	if !fresh {
		h.logger.Info("emergency alert already sent inside dedupe window", map[string]interface{}{
			"schemeId": input.SchemeID,
			"issueKey": issueKey,
		})
		metrics.ConciergeEmergencyAlerts.WithLabelValues(StatusDuplicate).Inc()
		return &Output{Status: StatusDuplicate, IssueKey: issueKey}, nil
	}

	messageID, err := aws.PublishAlert(ctx, h.sns, buildAlert(h.config.TopicARN, issueKey, input))
	if err != nil {
		// Release the key so the retry is not swallowed as a duplicate.
		if delErr := h.redis.Del(ctx, key).Err(); delErr != nil {
			h.logger.Error("failed to release alert dedupe key", map[string]interface{}{
				"key":   key,
				"error": delErr.Error(),
			})
		}
		metrics.ConciergeEmergencyAlerts.WithLabelValues("failed").Inc()
		return nil, errors.NewAlertPublishFailedError(h.config.TopicARN, err).WithMetadata("schemeId", input.SchemeID)
	}

	h.logger.Info("emergency alert published", map[string]interface{}{
		"schemeId":  input.SchemeID,
		"issueKey":  issueKey,
		"messageId": messageID,
	})
	metrics.ConciergeEmergencyAlerts.WithLabelValues(StatusSent).Inc()

	return &Output{
		Alerted:   true,
		Status:    StatusSent,
		IssueKey:  issueKey,
		MessageID: messageID,
	}, nil
}

// IssueKey groups issue descriptions that resolve to the same escalation
// template, so "gas leak" and "smell of gas" share one alert.
func IssueKey(input *Input) string {
	issue := input.SessionContext.IssueType
	if issue == "" {
		issue = input.Intent
	}
	return escalation.TemplateForIssueType(issue).Key
}

func DedupeKey(schemeID, issueKey string) string {
	return dedupeKeyPrefix + schemeID + ":" + issueKey
}

func buildAlert(topicARN, issueKey string, input *Input) aws.Alert {
	var b strings.Builder
	fmt.Fprintf(&b, "Emergency escalation for scheme %s\n", input.SchemeID)
	fmt.Fprintf(&b, "Issue: %s\n", issueKey)
	if input.Target != "" {
		fmt.Fprintf(&b, "Homeowner directed to: %s\n", escalation.RoleDescription(input.Target))
	}
	if s := input.SessionContext; s.DevelopmentName != "" || s.UnitNumber != "" || s.Block != "" {
		fmt.Fprintf(&b, "Location: %s\n", location(s))
	}
	if input.UserQuestion != "" {
		fmt.Fprintf(&b, "Homeowner message: %s\n", input.UserQuestion)
	}

	return aws.Alert{
		TopicARN: topicARN,
		// SNS subjects are capped at 100 characters.
		Subject: truncate(fmt.Sprintf("Concierge emergency: %s (%s)", issueKey, input.SchemeID), 100),
		Message: strings.TrimSpace(b.String()),
		Attributes: map[string]string{
			"schemeId": input.SchemeID,
			"issueKey": issueKey,
			"urgency":  string(input.UrgencyLevel),
		},
	}
}

func location(s escalation.SessionContext) string {
	var parts []string
	if s.DevelopmentName != "" {
		parts = append(parts, s.DevelopmentName)
	}
	if s.Block != "" {
		parts = append(parts, "Block "+s.Block)
	}
	if s.UnitNumber != "" {
		parts = append(parts, "Unit "+s.UnitNumber)
	}
	return strings.Join(parts, ", ")
}

// truncate keeps at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
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
		"jobKey":      job.Key,
		"alertStatus": output.Status,
	})
}
