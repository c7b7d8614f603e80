package main

import (
	"os"

	"github.com/wonny/vivienda/cmd/vivienda/commands"
)

// main is the entry point for the vivienda CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/vivienda [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
