// Package main is the entrypoint for the auth gateway. The gateway fronts
// signup, login, and token-guarded endpoints behind a fixed middleware
// pipeline.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aelexs/auth-gateway/internal/server"
)

func main() {
	ctx := context.Background()
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	return server.Run(ctx, server.Params{
		Name:  "gateway",
		Setup: setup,
	}, nil)
}
