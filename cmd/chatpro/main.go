package main

import (
	"fmt"
	"os"

	"github.com/PabloGalante/chatpro/internal/observability"
)

// version is injected via ldflags: -X main.version=1.0.0
var version = "dev"

func main() {
	err := newRootCmd().Execute()
	observability.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
