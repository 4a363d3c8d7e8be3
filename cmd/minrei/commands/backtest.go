package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/minrei/internal/backtest"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "GMV 백테스트 실행",
	Long: `포지션 스냅샷을 과거 가격 위에 올려 GMV 백테스트를 실행합니다.

출력: VaR(1Y/3M), 레버리지, 벤치마크 베타, 누적 수익률.

Example:
  go run ./cmd/minrei backtest --trader "J. Fish"
  go run ./cmd/minrei backtest                      # house book
  go run ./cmd/minrei backtest --lookback 250 --benchmark SPY500-N --json`,
	RunE: runBacktest,
}

var (
	backtestTrader    string
	backtestLookback  int
	backtestBenchmark string
	backtestJSON      bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestTrader, "trader", "", "트레이더 이름 (없으면 house book)")
	backtestCmd.Flags().IntVar(&backtestLookback, "lookback", 0, "lookback 일수 (기본: 설정값)")
	backtestCmd.Flags().StringVar(&backtestBenchmark, "benchmark", "", "베타 벤치마크 (기본: 설정값)")
	backtestCmd.Flags().BoolVar(&backtestJSON, "json", false, "JSON으로 출력")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := a.engine.RunGMVBacktest(ctx, backtest.GMVReportRequest{
		Trader:       backtestTrader,
		LookbackDays: backtestLookback,
		Benchmark:    backtestBenchmark,
	})
	if err != nil {
		return fmt.Errorf("run backtest: %w", err)
	}

	if backtestJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	book := backtestTrader
	if book == "" {
		book = "house"
	}

	fmt.Printf("\n=== GMV Backtest: %s ===\n", book)
	fmt.Printf("run_id:          %s\n", report.RunID)
	fmt.Printf("valuation date:  %s\n", report.ValuationDate.Format("2006-01-02"))
	fmt.Printf("observations:    %d\n", report.Observations)
	fmt.Printf("VaR 1Y (95%%):    %.2f\n", report.VaR1Y)
	fmt.Printf("VaR 3M (95%%):    %.2f\n", report.VaR3M)
	fmt.Printf("starting GMV:    %.2f\n", report.StartingGMV)
	fmt.Printf("ending GMV:      %.2f\n", report.EndingGMV)
	fmt.Printf("ending NMV:      %.2f\n", report.EndingNMV)
	fmt.Printf("leverage:        %.4f\n", report.Leverage)
	fmt.Printf("beta (%s):  %.4f (R²=%.4f, p=%.4f, n=%d)\n",
		report.Benchmark, report.Beta, report.R2, report.PValue, report.BetaObs)
	fmt.Printf("levered beta:    %.4f\n", report.LeveredBeta)
	fmt.Printf("GMV return:      %.4f\n", report.GMVReturn)
	fmt.Printf("levered return:  %.4f\n", report.LeveredReturn)

	if len(report.MissingKeys) > 0 {
		fmt.Printf("\n⚠️  %d position(s) without price history:\n", len(report.MissingKeys))
		for _, k := range report.MissingKeys {
			fmt.Printf("  - %s\n", k.String())
		}
	}
	return nil
}
