// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"zombiezen.com/go/bass/sigterm"

	"go.luatran.dev/pkg/internal/luatrancli"
)

func main() {
	rootCommand := luatrancli.New()

	ctx, cancel := signal.NotifyContext(context.Background(), sigterm.Signals()...)
	err := rootCommand.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "luatran:", err)
		os.Exit(1)
	}
}
