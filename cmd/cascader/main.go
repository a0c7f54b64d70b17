package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/goliatone/go-cascader/internal/cli"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("cascader: %v", err)
	}
}
