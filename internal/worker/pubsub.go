package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types accepted on the worker subscription.
const (
	JobTowerRefresh   = "tower_refresh"
	JobCoverageReport = "coverage_report"
	JobHealthCheck    = "health_check"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	refreshJob       *RefreshJob
	reportJob        *ReportJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	ReportJob        *ReportJob
	Logger           zerolog.Logger
}

// JobMessage is the wire form of a worker job.
type JobMessage struct {
	JobType string `json:"job_type"`

	// Regions restricts a coverage report to the named regions; empty
	// reports on all configured regions.
	Regions []string `json:"regions,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		refreshJob:       cfg.RefreshJob,
		reportJob:        cfg.ReportJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	var job JobMessage
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var err error
	switch job.JobType {
	case JobTowerRefresh:
		err = h.handleTowerRefresh(ctx)
	case JobCoverageReport:
		err = h.handleCoverageReport(ctx, job)
	case JobHealthCheck:
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", job.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", job.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleTowerRefresh(ctx context.Context) error {
	err := h.refreshJob.Run(ctx)
	if errors.Is(err, ErrNoReloader) {
		// Nothing to reload in mock-backed deployments; redelivery would
		// never succeed either.
		h.logger.Warn().Msg("tower refresh skipped: no reloadable dataset")
		return nil
	}
	return err
}

func (h *PubSubHandler) handleCoverageReport(ctx context.Context, job JobMessage) error {
	reportJob := h.reportJob
	if len(job.Regions) > 0 {
		reportJob = h.scopedReportJob(job.Regions)
	}

	result := reportJob.Run(ctx)

	// Consider it successful if more than half the regions reported.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many region failures: %d/%d", result.Failed, result.TotalRegions)
	}
	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	// Report on a single region to verify the tower pipeline end to end.
	regions := h.reportJob.config.Regions
	if len(regions) == 0 {
		regions = DefaultCoverageRegions()
	}

	healthCheckJob := NewReportJob(ReportJobConfig{
		Config: ReportConfig{
			Regions:     regions[:1],
			Concurrency: 1,
			Timeout:     10 * time.Second,
		},
		Towers: h.reportJob.towers,
		Scorer: h.reportJob.scorer,
		Logger: h.logger,
	})

	result := healthCheckJob.Run(ctx)
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}

// scopedReportJob narrows the configured regions to the named subset.
// Unknown names are ignored; an empty match falls back to all regions.
func (h *PubSubHandler) scopedReportJob(names []string) *ReportJob {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var scoped []CoverageRegion
	for _, region := range h.reportJob.config.Regions {
		if wanted[region.Name] {
			scoped = append(scoped, region)
		}
	}
	if len(scoped) == 0 {
		return h.reportJob
	}

	cfg := h.reportJob.config
	cfg.Regions = scoped
	return NewReportJob(ReportJobConfig{
		Config: cfg,
		Towers: h.reportJob.towers,
		Scorer: h.reportJob.scorer,
		Logger: h.logger,
	})
}
