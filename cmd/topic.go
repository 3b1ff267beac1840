package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/inverso/portfolio/docs"
)

type topicCmd struct {
	list bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show the documentation" }
func (*topicCmd) Usage() string {
	return `pft topic [-list] [<topic>...]

  Shows the documentation of the topics, '*' shows them all, and the index
  when no topic is given.

`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "print the topic names only")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.list {
		fmt.Println(strings.Join(docs.Topics(), "\n"))
		return subcommands.ExitSuccess
	}

	names := f.Args()
	if len(names) == 0 {
		names = []string{"readme"}
	}
	doc, err := docs.Read(names...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading the documentation: %v\n", err)
		fmt.Fprintf(os.Stderr, "Known topics: %s\n", strings.Join(docs.Topics(), ", "))
		return subcommands.ExitUsageError
	}
	printMarkdown(doc)
	return subcommands.ExitSuccess
}
