package main

import (
	"log"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	log.SetFlags(0)
	cfg := &Config{fs: afero.NewOsFs()}
	cobra.CheckErr(newCmd(cfg).Execute())
}
