package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/macropower/indexstamp/internal/cli"
)

const (
	cmdName = "indexstamp"

	shortDesc = "Stamp a Helm chart repository index with the latest git tag."
	longDesc  = `Stamp a Helm chart repository index with the latest git tag.

indexstamp resolves the nearest tag reachable from HEAD (as
"git describe --abbrev=0 --tags" does), finds the first version of the chart
in index.yaml whose version equals the tag, sets its appVersion to the tag,
and rewrites the index.
`
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := cli.NewRootCmd(cmdName, shortDesc, longDesc)

	err := cmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimLeft(err.Error(), "\n"))
		os.Exit(1)
	}
}
