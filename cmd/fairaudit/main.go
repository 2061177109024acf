package main

import (
	"os"

	"github.com/wonny/fairaudit/cmd/fairaudit/commands"
)

// main is the entry point for the fairaudit CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/fairaudit [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
