package users

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cdrandin/SMS-Simple-Web-App/internal/auth"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/cmdflags"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/userdb"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var store *userdb.Store
	dbPath := "db.sqlite"
	return &cli.Command{
		Name:  "users",
		Usage: "Manage user records in the given database",
		Flags: []cli.Flag{
			cmdflags.UserDB(&dbPath),
		},
		Before: func(ctx *cli.Context) error {
			var err error
			store, err = userdb.Open(ctx.Context, dbPath)
			return err
		},
		After: func(*cli.Context) error {
			if store != nil {
				return store.Close()
			}
			return nil
		},
		Subcommands: []*cli.Command{
			registerCmd(&store),
			listCmd(&store),
		},
	}
}

func registerCmd(store **userdb.Store) *cli.Command {
	var username string
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new user (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Name of the user to register",
				Destination: &username,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				return sc.Err()
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			svc := auth.NewService(*store, nil)
			(*store).OnInsert(svc.FinalizeOnInsert())
			return (*store).Register(ctx.Context, username, password)
		},
	}
}

func listCmd(store **userdb.Store) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print every registered username",
		Action: func(ctx *cli.Context) error {
			names, err := (*store).Usernames(ctx.Context)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}
