package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/minrei/internal/api"
	"github.com/wonny/minrei/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `리스크 REST API 서버를 시작합니다.

Endpoints:
  GET /health                 - Health check (DB 포함)
  GET /metrics                - Prometheus metrics
  GET /api/var/pnl-vectors    - 트레이더별 포지션 P&L 벡터
  GET /api/var/backtest       - GMV 백테스트 리포트
  GET /api/utils/traders      - 트레이더 목록
  GET /api/utils/groups       - 그룹 목록

Example:
  go run ./cmd/minrei api
  go run ./cmd/minrei api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: 설정값)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== minrei Risk API Server ===")

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	varHandler := handlers.NewVarHandler(a.engine, a.log)
	utilsHandler := handlers.NewUtilsHandler(a.refs, a.log)

	router := api.NewRouter(a.cfg, varHandler, utilsHandler, a.db, a.log)
	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	a.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
