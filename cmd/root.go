package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dDict/cmd/dict"
	"github.com/ValentinKolb/dDict/cmd/serve"
	"github.com/ValentinKolb/dDict/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "ddict",
		Short: "networked word/meaning dictionary",
		Long: fmt.Sprintf(`dDict (v%s)

A networked dictionary server written in Go. Clients query and edit
words and their meanings over a line-delimited JSON protocol (tcp or
unix sockets), the server keeps the dictionary in memory and mirrors
every change to a JSON file.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dDict",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dDict v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper (env files and DDICT_* variables)
	cobra.OnInitialize(util.InitEnvConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(dict.DictCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
