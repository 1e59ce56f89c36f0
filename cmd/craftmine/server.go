package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dcrodman/craftmine/internal"
	"github.com/dcrodman/craftmine/internal/core"
)

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "craftmine server",
		Description: "Runs the craftmine server.",
		Action:      runServer,
	}
}

func runServer(cc *cli.Context) error {
	configPath := cc.String("config")
	config, err := core.LoadConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Println("using configuration in:", configPath)

	// Change to the same directory as the config file so that any relative
	// paths in the config file will resolve.
	if err := os.Chdir(filepath.Clean(configPath)); err != nil {
		return fmt.Errorf("error changing to config directory: %w", err)
	}

	// Bind the Controller to one top-level server context so that we can shut down cleanly.
	ctx, cancel := context.WithCancel(cc.Context)
	defer cancel()

	// Register a SIGTERM handler so that Ctrl-C will shut the server down gracefully.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go exitHandler(cancel, c)

	controller := &internal.Controller{Config: config}
	if err := controller.Start(ctx); err != nil {
		return err
	}
	fmt.Println("shut down")
	return nil
}

// exitHandler cancels the server on the first signal and exits immediately on
// the second.
func exitHandler(cancelFn func(), c chan os.Signal) {
	<-c
	fmt.Println("waiting to shut down gracefully...")
	cancelFn()

	<-c
	fmt.Println("hard exiting (killed)")
	os.Exit(1)
}
