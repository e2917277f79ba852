package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	aishcmder "github.com/papercomputeco/aish/cmd/aish"
	"github.com/papercomputeco/aish/pkg/cliui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := aishcmder.NewAishCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "  %s %s\n", cliui.FailMark, err)
		stop()
		os.Exit(1)
	}
}
