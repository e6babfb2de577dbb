package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cdrandin/SMS-Simple-Web-App/cmd/smsapp/serve"
	"github.com/cdrandin/SMS-Simple-Web-App/cmd/smsapp/users"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "smsapp",
		Usage: "Realtime messaging backend with private per-user channels",
		Commands: []*cli.Command{
			serve.Cmd(),
			users.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
	}
}
