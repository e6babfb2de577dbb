package serve

import (
	"github.com/cdrandin/SMS-Simple-Web-App/internal/auth"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/cmdflags"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/httpserver"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/logutil"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/realtime"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/userdb"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/web"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	dbPath := "db.sqlite"
	bind := "127.0.0.1:8000"
	publicDir := "public"
	seedUser := "cdrandin"
	seedPassword := "lolinternet"
	var signingKeyEnvVar string
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the realtime server",
		Flags: append([]cli.Flag{
			cmdflags.UserDB(&dbPath),
			cmdflags.Bind(&bind),
			cmdflags.PublicDir(&publicDir),
			cmdflags.SigningKeyEnvVar(&signingKeyEnvVar),
		}, cmdflags.SeedUser(&seedUser, &seedPassword)...),
		Action: func(ctx *cli.Context) error {
			log := logutil.GetOrDefault(ctx.Context)

			key, err := auth.SigningKeyFromEnv(signingKeyEnvVar, nil, nil)
			if err != nil {
				return err
			}
			store, err := userdb.Open(ctx.Context, dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			tokens, err := auth.InMemoryTokenStore()
			if err != nil {
				return err
			}
			svc := auth.NewService(store, auth.NewSigner(key, tokens))
			store.OnInsert(svc.FinalizeOnInsert())

			// the seed user goes through the same insert+finalize
			// path as any other registration
			err = store.Seed(ctx.Context, seedUser, seedPassword)
			if err != nil {
				return err
			}

			hub := realtime.NewHub()
			hub.UsePublishIn(svc.Authorize)

			handler := logutil.AccessLog(log, web.AsHandler(realtime.Handler(hub, svc), publicDir))
			log.Info().Str("bind", bind).Str("db", dbPath).Msg("Serving realtime transport")
			return httpserver.Serve(ctx.Context, bind, handler)
		},
	}
}
