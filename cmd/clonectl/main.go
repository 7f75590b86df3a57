package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const usage = `usage: clonectl [--env-file FILE] <command> [flags]

commands:
  login          exchange admin credentials for a session token
  clone          clone categories and/or products between two accounts
  clone-account  provision a new account from a template account
  inspect        print what an account owns
  create-admin   create an admin account
`

var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	envFile, args := splitEnvFile(args)
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	// Flags are parsed before any connection is opened.
	exec, err := cmd(args[1:], stderr)
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
		}
		return 2
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(stderr, "failed to load %s: %v\n", envFile, err)
			return 1
		}
	}
	cfg := config.Load()

	log := logger.NewWithWriter(stderr, zapcore.WarnLevel)
	defer log.Sync()

	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	application, err := app.New(setupCtx, cfg, log)
	cancel()
	if err != nil {
		fmt.Fprintf(stderr, "failed to connect: %v\n", err)
		return 1
	}
	defer application.Close()

	out, err := exec(ctx, application, stderr)
	if out != nil {
		if encErr := writeJSON(stdout, out); encErr != nil {
			log.Error("Failed to write output", zap.Error(encErr))
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// splitEnvFile pulls a leading --env-file flag off the argument list. It defaults to .env.
func splitEnvFile(args []string) (string, []string) {
	envFile := ".env"
	for len(args) > 0 {
		switch {
		case args[0] == "--env-file" && len(args) > 1:
			envFile, args = args[1], args[2:]
		case strings.HasPrefix(args[0], "--env-file="):
			envFile, args = strings.TrimPrefix(args[0], "--env-file="), args[1:]
		default:
			return envFile, args
		}
	}
	return envFile, args
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
