package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/golang/glog"

	"waapiview/internal/cmd"
)

func main() {
	// glog reads its flags from the go flag set; cobra parses them.
	_ = flag.CommandLine.Parse([]string{})
	defer glog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "waapiview:", err)
		glog.Flush()
		os.Exit(1)
	}
}
