// craftmine is a Minecraft Java Edition 1.15.2 server and its related tools.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := app().Run(os.Args); err != nil {
		fmt.Printf("craftmine error: %v\n", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	app := cli.NewApp()
	app.Name = "craftmine"
	app.Usage = "Minecraft 1.15.2 server"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the directory containing the server config file",
			EnvVars: []string{"CRAFTMINE_CONFIG"},
			Value:   "./",
		},
	}
	app.Commands = []*cli.Command{
		serverCommand(),
		usersCommand(),
	}
	app.Action = runServer

	return app
}
