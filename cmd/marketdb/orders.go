package main

import (
	"context"

	"github.com/tdex-network/market-store/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var orders = cli.Command{
	Name:  "orders",
	Usage: "list the orders of the store",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "status",
			Usage: "list only orders in the given status, one of unverified, " +
				"open, expired, completed or cancelled",
		},
		&cli.StringFlag{
			Name:  "id",
			Usage: "show a single order, in the form <trader_id>.<order_number>",
		},
	},
	Action: ordersAction,
}

func ordersAction(ctx *cli.Context) error {
	status := ctx.String("status")
	if !isValidStatus(status) {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	cfg, cleanup, err := getStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := cfg.MarketService()

	if id := ctx.String("id"); len(id) > 0 {
		orderID, err := domain.NewOrderIDFromString(id)
		if err != nil {
			return err
		}
		order, err := svc.GetOrder(context.Background(), orderID)
		if err != nil {
			return err
		}
		printJSON(order)
		return nil
	}

	list, err := svc.ListOrders(context.Background(), status)
	if err != nil {
		return err
	}

	printJSON(list)
	return nil
}

func isValidStatus(status string) bool {
	switch status {
	case "",
		domain.OrderStatusUnverified,
		domain.OrderStatusOpen,
		domain.OrderStatusExpired,
		domain.OrderStatusCompleted,
		domain.OrderStatusCancelled:
		return true
	default:
		return false
	}
}
