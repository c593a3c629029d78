package main

import (
	"fmt"
	"os"

	"github.com/flarecore/studiolink/cmd/studiolink"
)

func main() {
	if err := studiolink.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
