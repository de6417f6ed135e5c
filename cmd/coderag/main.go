package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/dshills/coderag/internal/cli"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// credentials may live in a .env next to the corpus
	_ = godotenv.Load()

	cmd := cli.NewRootCmd(cli.BuildInfo{Version: version, BuildTime: buildTime})
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
