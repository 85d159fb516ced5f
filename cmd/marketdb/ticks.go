package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
)

var ticks = cli.Command{
	Name:   "ticks",
	Usage:  "list the ticks of the local order book",
	Action: ticksAction,
}

var cleanticks = cli.Command{
	Name:  "cleanticks",
	Usage: "remove every tick of the local order book",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "yes",
			Usage: "confirm the removal",
		},
	},
	Action: cleanTicksAction,
}

func ticksAction(ctx *cli.Context) error {
	cfg, cleanup, err := getStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	list, err := cfg.RepoManager().TickRepository().GetTicks(context.Background())
	if err != nil {
		return err
	}

	printJSON(list)
	return nil
}

func cleanTicksAction(ctx *cli.Context) error {
	if !ctx.Bool("yes") {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	cfg, cleanup, err := getStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cfg.RepoManager().TickRepository().DeleteAllTicks(
		context.Background(),
	); err != nil {
		return err
	}

	fmt.Println("order book cleaned")
	return nil
}
