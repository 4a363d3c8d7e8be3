package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "minrei",
	Short: "minrei - 트레이딩 포트폴리오 historical simulation 리스크 엔진",
	Long: `minrei Risk Backend CLI

포지션 스냅샷을 과거 가격 위에 올려 VaR / 레버리지 / 베타를 계산한다.

Usage:
  go run ./cmd/minrei [command]

Examples:
  go run ./cmd/minrei api
  go run ./cmd/minrei backtest --trader "J. Fish"
  go run ./cmd/minrei pnl --trader "J. Fish"
  go run ./cmd/minrei scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
