package main

import (
	"os"

	atmoscmder "github.com/atmoslabs/atmos/cmd/atmos"
)

func main() {
	cmd := atmoscmder.NewAtmosCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
