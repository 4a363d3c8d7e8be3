package main

import (
	"os"

	"github.com/wonny/minrei/cmd/minrei/commands"
)

// main is the entry point for the minrei CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/minrei [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
