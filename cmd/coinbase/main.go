package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	core "github.com/coinbase-samples/core-go"
	"github.com/coinbase-samples/core-go/internal/cli"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitGeneral   = 1
	ExitUsage     = 2
	ExitClient    = 3
	ExitTransport = 4
	ExitAPI       = 5
	ExitInterrupt = 130
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := cli.NewRootCmd(cli.DefaultEnv())
	rootCmd.Version = core.Version

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if core.KindOf(err) == core.KindUnknown {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	switch core.KindOf(err) {
	case core.KindClient:
		return ExitClient
	case core.KindTransport:
		return ExitTransport
	case core.KindHTTP, core.KindService:
		return ExitAPI
	}

	if isCobraUsageError(err) {
		return ExitUsage
	}
	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"flag needs an argument",
	"invalid argument",
	"unknown command",
	"accepts ",
	"requires at least",
	"requires at most",
}

func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
