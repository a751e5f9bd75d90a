package main

import (
	"context"
	"fmt"
	"os"

	"github.com/niksmo/paintstore/config"
	"github.com/niksmo/paintstore/internal/adapter/catalogapi"
	"github.com/niksmo/paintstore/internal/adapter/cli"
	"github.com/niksmo/paintstore/internal/app"
	"github.com/niksmo/paintstore/internal/core/service"
	"github.com/niksmo/paintstore/pkg/sigctx"
)

func main() {
	sigCtx, stop := sigctx.NotifyContext(context.Background())
	defer stop()

	cfg := config.Load()
	app.InitLogger(cfg.LogLevel)

	slot, err := app.NewCartSlot(sigCtx, cfg)
	if err != nil {
		die(err)
	}
	defer slot.Close()

	catalog, err := catalogapi.New(
		cfg.Catalog.BaseURL,
		catalogapi.TimeoutOpt(cfg.Catalog.RequestTimeout),
	)
	if err != nil {
		die(err)
	}

	svc := service.New(app.ServiceConfig(cfg), slot, catalog, nil, nil)
	defer svc.Close()

	items, err := svc.Catalog(sigCtx)
	if err != nil {
		die(err)
	}

	cart, err := svc.Cart(sigCtx, "")
	if err != nil {
		die(err)
	}

	shell := cli.NewShell(
		cart,
		service.NewCheckoutFormatter(app.ServiceConfig(cfg).Checkout),
		os.Stdout,
		service.SearchDebounceOpt(cfg.Search.Debounce),
	)
	shell.Load(items)

	if err := shell.Run(sigCtx, os.Stdin); err != nil && sigCtx.Err() == nil {
		die(err)
	}
}

func die(err error) {
	fmt.Fprintf(os.Stderr, "shopcli: %v\n", err)
	os.Exit(1)
}
