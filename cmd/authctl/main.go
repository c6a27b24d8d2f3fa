package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/cli"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	if err := app.Run(ctx, flagx.Positionals(os.Args[1:], config.ValueFlags)); err != nil {
		os.Exit(1)
	}

}
