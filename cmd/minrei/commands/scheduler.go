package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/minrei/internal/scheduler"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "리스크 리포트 스케줄러 시작",
	Long: `스케줄러를 시작하고 등록된 작업을 주기적으로 실행합니다.

Jobs:
  house_risk_report - 매일 house book GMV 백테스트 실행 후 로그

Example:
  go run ./cmd/minrei scheduler
  go run ./cmd/minrei scheduler --run-now`,
	RunE: runScheduler,
}

var schedulerRunNow bool

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().BoolVar(&schedulerRunNow, "run-now", false, "시작 시 모든 작업 즉시 1회 실행")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== minrei Risk Scheduler ===")

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	sched := scheduler.New(a.log)
	houseJob := scheduler.NewHouseReportJob(a.engine, a.cfg.Risk.HouseReportSchedule, a.log)
	if err := sched.AddJob(houseJob); err != nil {
		return fmt.Errorf("register job: %w", err)
	}

	sched.Start()

	if schedulerRunNow {
		for _, name := range sched.Jobs() {
			if err := sched.RunJob(name); err != nil {
				a.log.WithError(err).WithField("job", name).Error("Immediate run failed")
			}
		}
	}

	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
