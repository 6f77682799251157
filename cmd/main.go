package main

import (
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

const configFlag = "config"

func newConfigFlag() cobraflags.Flag {
	return &cobraflags.StringFlag{
		Name:  configFlag,
		Value: "",
		Usage: "Path to a YAML config file. Environment variables override it",
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "gymmanager",
		Short:         "Multi-tenant gym management backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
