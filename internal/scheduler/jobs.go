package scheduler

import (
	"context"
	"fmt"

	"github.com/wonny/minrei/internal/backtest"
	"github.com/wonny/minrei/pkg/logger"
)

// HouseReportJob runs the daily GMV backtest over the aggregated house book
// and logs the headline risk numbers. 결과 저장은 하지 않는다.
type HouseReportJob struct {
	engine   *backtest.Engine
	schedule string
	logger   *logger.Logger
}

// NewHouseReportJob creates the daily house risk report job
func NewHouseReportJob(engine *backtest.Engine, schedule string, log *logger.Logger) *HouseReportJob {
	return &HouseReportJob{
		engine:   engine,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *HouseReportJob) Name() string {
	return "house_risk_report"
}

// Schedule returns the cron schedule expression
func (j *HouseReportJob) Schedule() string {
	return j.schedule
}

// Run executes the house GMV backtest
func (j *HouseReportJob) Run(ctx context.Context) error {
	report, err := j.engine.RunGMVBacktest(ctx, backtest.GMVReportRequest{})
	if err != nil {
		return fmt.Errorf("house gmv backtest: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":         report.RunID,
		"valuation_date": report.ValuationDate.Format("2006-01-02"),
		"var_1y":         report.VaR1Y,
		"var_3m":         report.VaR3M,
		"ending_gmv":     report.EndingGMV,
		"ending_nmv":     report.EndingNMV,
		"leverage":       report.Leverage,
		"beta":           report.Beta,
		"levered_beta":   report.LeveredBeta,
	}).Info("Daily house risk report")
	return nil
}
