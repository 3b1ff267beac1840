// Command pft tracks a stock portfolio: record buys, sells and dividends, and
// report the open positions valued at the latest prices.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/inverso/portfolio/cmd"
	"github.com/inverso/portfolio/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the command line for shell completion, from the
// flags of every subcommand. Set COMP_INSTALL=1 to install it.
func completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: predictFlags(flag.CommandLine),
	}
	for _, c := range cmd.Commands {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		root.Sub[c.Name()] = &complete.Command{Flags: predictFlags(fs)}
	}
	root.Sub["import"].Args = predict.Files("*.csv")
	root.Sub["topic"].Args = predict.Set(append(docs.Topics(), "*"))
	return root
}

func predictFlags(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		switch f.Name {
		case "ledger-file", "classification", "html", "o":
			flags[f.Name] = predict.Files("*")
		case "quotes":
			flags[f.Name] = predict.Set{"yahoo", "eodhd", "table", "none"}
		case "g", "by":
			flags[f.Name] = predict.Set{"market", "sector"}
		case "layout":
			flags[f.Name] = predict.Set{"spreadsheet", "english"}
		case "k":
			flags[f.Name] = predict.Set{"buy", "sell", "dividend"}
		default:
			if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
				flags[f.Name] = predict.Nothing
			} else {
				flags[f.Name] = predict.Something
			}
		}
	})
	return flags
}

func main() {
	name := path.Base(os.Args[0])
	completion().Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()

	if flag.NArg() > 0 && !cmd.IsCommand(flag.Arg(0)) {
		if found, code := cmd.RunExtension(flag.Arg(0), flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}
