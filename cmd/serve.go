package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"
	"github.com/inverso/portfolio/api"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the portfolio over HTTP" }
func (*serveCmd) Usage() string {
	return `pft serve [-addr <host:port>]

  Serves the positions, totals, groups and transactions as JSON, and the
  report as an HTML page. See 'pft topic api' for the routes.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", envOr("PFT_ADDR", ":8080"), "Address to listen on")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	v, closer, err := cfg.Valuator(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closer()

	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.New(v, cfg.Currency)
	fmt.Fprintf(os.Stderr, "Serving the portfolio on %s\n", c.addr)
	if err := server.Router().Run(c.addr); err != nil {
		log.Printf("server stopped: %v", err)
		fmt.Fprintf(os.Stderr, "Error serving: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
