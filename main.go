// bhpnet - a minimal TCP client and server with remote command
// execution, file upload and an interactive command shell.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bhpnet/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "bhpnet: %v\n", err)
		os.Exit(1)
	}
}
