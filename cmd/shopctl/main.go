package main

import (
	"os"

	"github.com/shopease/shopease/cmd/shopctl/cmd"
	"github.com/shopease/shopease/internal/common"
)

func main() {
	common.ConfigureCommandLineLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
