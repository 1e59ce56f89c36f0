package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/dcrodman/craftmine/internal/core"
	"github.com/dcrodman/craftmine/internal/core/data"
)

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Inspect the player records in the configured database",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Prints the record of a player",
				ArgsUsage: "<username>",
				Action:    showUser,
			},
			{
				Name:   "reset-online",
				Usage:  "Marks every player offline, e.g. after a crash",
				Action: resetOnline,
			},
		},
	}
}

func initDB(cc *cli.Context) (*gorm.DB, error) {
	cfg, err := core.LoadConfig(cc.String("config"))
	if err != nil {
		return nil, err
	}
	// Relative database paths are relative to the config directory.
	if err := os.Chdir(cc.String("config")); err != nil {
		return nil, fmt.Errorf("error changing to config directory: %w", err)
	}
	return data.Initialize(cfg)
}

func showUser(cc *cli.Context) error {
	if cc.NArg() != 1 {
		return fmt.Errorf("expected exactly one username")
	}
	db, err := initDB(cc)
	if err != nil {
		return err
	}
	defer data.Shutdown(db)

	user, err := data.FindUserByUsername(db, cc.Args().First())
	if err != nil {
		return fmt.Errorf("error finding user: %w", err)
	} else if user == nil {
		fmt.Printf("no player named '%s' has joined this server\n", cc.Args().First())
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "username\t%s\n", user.Username)
	fmt.Fprintf(w, "uuid\t%s\n", user.UUID)
	fmt.Fprintf(w, "world\t%s\n", user.World)
	fmt.Fprintf(w, "gamemode\t%d\n", user.Gamemode)
	fmt.Fprintf(w, "position\t%.2f, %.2f, %.2f\n", user.X, user.Y, user.Z)
	fmt.Fprintf(w, "online\t%v\n", user.Online)
	fmt.Fprintf(w, "last login\t%v\n", user.LastLogin)
	return w.Flush()
}

func resetOnline(cc *cli.Context) error {
	db, err := initDB(cc)
	if err != nil {
		return err
	}
	defer data.Shutdown(db)

	if err := data.ResetOnlineUsers(db); err != nil {
		return fmt.Errorf("error resetting online players: %w", err)
	}
	fmt.Println("all players marked offline")
	return nil
}
