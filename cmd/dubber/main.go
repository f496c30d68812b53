package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"dubber/internal/dubbing"
	"dubber/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "dubber: interrupted")
			return 1
		}
		fmt.Fprintln(stderr, formatError(err))
		if hint := errorHint(err); hint != "" {
			fmt.Fprintf(stderr, "hint: %s\n", hint)
		}
		return 1
	}
	return 0
}

// formatError renders pipeline failures as "dubber: <stage> failed: <err>".
func formatError(err error) string {
	var stage *dubbing.StageError
	if errors.As(err, &stage) {
		return fmt.Sprintf("dubber: %s", stage.Error())
	}
	return fmt.Sprintf("dubber: %v", err)
}

func errorHint(err error) string {
	if services.Marker(err) == nil {
		return ""
	}
	return services.Hint(err)
}
