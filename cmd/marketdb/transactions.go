package main

import (
	"context"

	"github.com/tdex-network/market-store/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var transactions = cli.Command{
	Name:  "transactions",
	Usage: "list the transactions of the store with their payments",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "id",
			Usage: "show a single transaction given its hex id",
		},
	},
	Action: transactionsAction,
}

func transactionsAction(ctx *cli.Context) error {
	cfg, cleanup, err := getStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	txRepo := cfg.RepoManager().TransactionRepository()

	if id := ctx.String("id"); len(id) > 0 {
		txID, err := domain.NewTransactionIDFromString(id)
		if err != nil {
			return err
		}
		tx, err := txRepo.GetTransaction(context.Background(), txID)
		if err != nil {
			return err
		}
		printJSON(tx)
		return nil
	}

	txs, err := txRepo.GetAllTransactions(context.Background())
	if err != nil {
		return err
	}

	printJSON(txs)
	return nil
}
