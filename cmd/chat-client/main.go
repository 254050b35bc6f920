package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"chatsync/internal/di"
)

func main() {
	cfg := di.ProvideConfig()

	app, cleanup, err := di.InitializeClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize client")
	}
	defer cleanup()
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sh := newShell(app, os.Stdout)
	sh.printf("chatsync (%s backend), /help for commands", cfg.Store.Backend)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := sh.exec(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return
				}
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		}
	}
}
