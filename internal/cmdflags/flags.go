package cmdflags

import (
	"github.com/cdrandin/SMS-Simple-Web-App/internal/auth"
	"github.com/urfave/cli/v2"
)

func UserDB(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "db",
		Aliases:     []string{"d"},
		Usage:       "Path to the sqlite user database",
		EnvVars:     []string{"SMSAPP_DB"},
		Destination: out,
		Value:       *out,
	}
}

func Bind(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "bind",
		Aliases:     []string{"b"},
		Usage:       "Address to bind the HTTP/realtime server",
		EnvVars:     []string{"SMSAPP_BIND"},
		Destination: out,
		Value:       *out,
	}
}

func PublicDir(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "public",
		Usage:       "Directory with static assets served at the root",
		EnvVars:     []string{"SMSAPP_PUBLIC"},
		Destination: out,
		Value:       *out,
	}
}

func SigningKeyEnvVar(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = auth.SigningKeyEnvVar
	}
	return &cli.StringFlag{
		Name:        "signing-key-envvar-name",
		Usage:       "Name of the environment variable that holds the auth token signing key. The key itself should not be passed as an argument",
		Value:       *out,
		Destination: out,
	}
}

func SeedUser(user, password *string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "seed-user",
			Usage:       "Username inserted on startup when missing",
			EnvVars:     []string{"SMSAPP_SEED_USER"},
			Destination: user,
			Value:       *user,
		},
		&cli.StringFlag{
			Name:        "seed-password",
			Usage:       "Password for the seed user (only used when the row is first created)",
			EnvVars:     []string{"SMSAPP_SEED_PASSWORD"},
			Destination: password,
			Value:       *password,
		},
	}
}
