package main

import (
	"os"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/cmd/bootstrapper/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
