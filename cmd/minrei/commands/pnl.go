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

// pnlCmd represents the pnl command
var pnlCmd = &cobra.Command{
	Use:   "pnl",
	Short: "포지션별 P&L 벡터 생성",
	Long: `트레이더 포지션별 historical simulation P&L 벡터를 생성합니다.

각 포지션의 델타를 과거 가격 변화에 곱해 일별 P&L 시계열을 만든다.

Example:
  go run ./cmd/minrei pnl --trader "J. Fish"
  go run ./cmd/minrei pnl --trader "J. Fish" --date 2026-08-14 --json`,
	RunE: runPnl,
}

var (
	pnlTrader   string
	pnlDate     string
	pnlLookback int
	pnlJSON     bool
)

func init() {
	rootCmd.AddCommand(pnlCmd)

	pnlCmd.Flags().StringVar(&pnlTrader, "trader", "", "트레이더 이름 (필수)")
	pnlCmd.Flags().StringVar(&pnlDate, "date", "", "평가일 YYYY-MM-DD (기본: 최신 스냅샷)")
	pnlCmd.Flags().IntVar(&pnlLookback, "lookback", 0, "lookback 일수 (기본: 설정값)")
	pnlCmd.Flags().BoolVar(&pnlJSON, "json", false, "JSON으로 출력")
	_ = pnlCmd.MarkFlagRequired("trader")
}

func runPnl(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	req := backtest.PnlVectorsRequest{
		Trader:       pnlTrader,
		LookbackDays: pnlLookback,
	}
	if pnlDate != "" {
		vd, err := time.Parse("2006-01-02", pnlDate)
		if err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
		req.ValuationDate = &vd
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := a.engine.GeneratePnlVectors(ctx, req)
	if err != nil {
		return fmt.Errorf("generate pnl vectors: %w", err)
	}

	if pnlJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("\n=== P&L Vectors: %s (%s) ===\n",
		result.Trader, result.ValuationDate.Format("2006-01-02"))
	for _, v := range result.Vectors {
		last := 0.0
		if len(v.Pnl) > 0 {
			last = v.Pnl[len(v.Pnl)-1]
		}
		fmt.Printf("  %-12s %s  fm=%d  delta=%12.2f  obs=%4d  last_pnl=%12.2f\n",
			v.PxLocation, v.ContractMonth.Format("2006-01"), v.ForwardMonth,
			v.DeltaPosition, len(v.Pnl), last)
	}

	if len(result.MissingKeys) > 0 {
		fmt.Printf("\n⚠️  %d position(s) without price history:\n", len(result.MissingKeys))
		for _, k := range result.MissingKeys {
			fmt.Printf("  - %s\n", k.String())
		}
	}
	return nil
}
