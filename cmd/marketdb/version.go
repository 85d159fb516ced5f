package main

import (
	"context"

	"github.com/urfave/cli/v2"
)

var version = cli.Command{
	Name:   "version",
	Usage:  "show the schema version of the store, without upgrading it",
	Action: versionAction,
}

func versionAction(ctx *cli.Context) error {
	cfg, err := getStoreConfig(ctx)
	if err != nil {
		return err
	}

	v, err := cfg.DatabaseVersion(context.Background())
	if err != nil {
		return err
	}

	printJSON(map[string]string{"version": v})
	return nil
}
