package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
)

func main() {
	ctx := log.WithContext(context.Background(), log.Default())
	err := rootCmd.ExecuteContext(ctx)
	if logFile != nil {
		logFile.Close() // nolint: errcheck
	}
	if err != nil {
		os.Exit(1)
	}
}
