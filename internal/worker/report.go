package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/coverage"
	"github.com/cellway/cellway/internal/towers"
)

// ReportJob computes per-region coverage summaries from the tower data.
type ReportJob struct {
	config  ReportConfig
	towers  *towers.Service
	scorer  *coverage.Scorer
	logger  zerolog.Logger
	metrics *ReportMetrics
}

// ReportMetrics tracks report job statistics.
type ReportMetrics struct {
	mu sync.RWMutex

	TotalRuns         int64
	SuccessfulRegions int64
	FailedRegions     int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// ReportJobConfig holds configuration for creating a ReportJob.
type ReportJobConfig struct {
	Config ReportConfig
	Towers *towers.Service
	Scorer *coverage.Scorer
	Logger zerolog.Logger
}

// NewReportJob creates a coverage report job.
func NewReportJob(cfg ReportJobConfig) *ReportJob {
	config := cfg.Config
	if len(config.Regions) == 0 {
		config.Regions = DefaultCoverageRegions()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	scorer := cfg.Scorer
	if scorer == nil {
		scorer = coverage.NewScorer(coverage.DefaultScoreConfig())
	}

	return &ReportJob{
		config:  config,
		towers:  cfg.Towers,
		scorer:  scorer,
		logger:  cfg.Logger,
		metrics: &ReportMetrics{},
	}
}

// RegionReport is the coverage summary for one region.
type RegionReport struct {
	Region        string
	TowerCount    int
	MeanSignalDbm *float64
	Score         float64
	Source        string
	Error         string
}

// Failed reports whether the region query failed.
func (r RegionReport) Failed() bool {
	return r.Error != ""
}

// ReportResult contains the outcome of one report run.
type ReportResult struct {
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	TotalRegions int
	Successful   int
	Failed       int
	Regions      []RegionReport
}

// Run executes the report for all configured regions through a fixed
// worker pool.
func (j *ReportJob) Run(ctx context.Context) *ReportResult {
	startTime := time.Now()
	result := &ReportResult{
		StartTime:    startTime,
		TotalRegions: len(j.config.Regions),
	}

	j.logger.Info().
		Int("regions", result.TotalRegions).
		Int("concurrency", j.config.Concurrency).
		Msg("starting coverage report job")

	regionsChan := make(chan CoverageRegion, len(j.config.Regions))
	reportsChan := make(chan RegionReport, len(j.config.Regions))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.reportWorker(ctx, regionsChan, reportsChan)
		}()
	}

	for _, region := range j.config.Regions {
		regionsChan <- region
	}
	close(regionsChan)

	go func() {
		wg.Wait()
		close(reportsChan)
	}()

	for report := range reportsChan {
		if report.Failed() {
			result.Failed++
		} else {
			result.Successful++
		}
		result.Regions = append(result.Regions, report)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("coverage report job completed")

	return result
}

func (j *ReportJob) reportWorker(ctx context.Context, regions <-chan CoverageRegion, reports chan<- RegionReport) {
	for region := range regions {
		select {
		case <-ctx.Done():
			return
		default:
			reports <- j.reportRegion(ctx, region)
		}
	}
}

func (j *ReportJob) reportRegion(ctx context.Context, region CoverageRegion) RegionReport {
	regionCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	report := RegionReport{Region: region.Name}

	res, err := j.towers.WithinBounds(regionCtx, region.Bounds)
	if err != nil {
		j.logger.Warn().Err(err).
			Str("region", region.Name).
			Msg("region tower query failed")
		report.Error = err.Error()
		return report
	}

	report.TowerCount = len(res.Towers)
	report.MeanSignalDbm = meanSignal(res.Towers)
	report.Score = j.scorer.Score(res.Towers)
	report.Source = res.Source

	logEvent := j.logger.Info().
		Str("region", region.Name).
		Int("towers", report.TowerCount).
		Float64("score", report.Score).
		Str("source", report.Source)
	if report.MeanSignalDbm != nil {
		logEvent = logEvent.Float64("mean_signal_dbm", *report.MeanSignalDbm)
	}
	logEvent.Msg("region coverage reported")

	return report
}

// meanSignal averages the sampled signal readings, nil when no tower in
// the region carries one.
func meanSignal(ts []towers.Tower) *float64 {
	var sum float64
	var n int
	for _, t := range ts {
		if t.AverageSignal != nil {
			sum += *t.AverageSignal
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

func (j *ReportJob) updateMetrics(result *ReportResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulRegions += int64(result.Successful)
	j.metrics.FailedRegions += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *ReportJob) GetMetrics() ReportMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return ReportMetrics{
		TotalRuns:         j.metrics.TotalRuns,
		SuccessfulRegions: j.metrics.SuccessfulRegions,
		FailedRegions:     j.metrics.FailedRegions,
		LastRunAt:         j.metrics.LastRunAt,
		LastRunDuration:   j.metrics.LastRunDuration,
		TotalDuration:     j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *ReportJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":         m.TotalRuns,
		"successful_regions": m.SuccessfulRegions,
		"failed_regions":     m.FailedRegions,
		"last_run_at":        m.LastRunAt,
		"last_run_duration":  m.LastRunDuration.String(),
		"total_duration":     m.TotalDuration.String(),
	}
}
