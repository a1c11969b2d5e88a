package dict

import (
	"github.com/ValentinKolb/dDict/cmd/util"
	"github.com/ValentinKolb/dDict/rpc/client"
	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcDict client.IDictionary

	// DictCommands represents the dictionary command group
	DictCommands = &cobra.Command{
		Use:                "dict",
		Short:              "Query and edit a dDict server",
		PersistentPreRunE:  setupDictClient,
		PersistentPostRunE: closeDictClient,
	}
)

func init() {
	// Add common RPC flags to the dict command
	util.SetupRPCClientFlags(DictCommands)

	// client commands are quiet by default, shadows the root flag
	DictCommands.PersistentFlags().String("log-level", "warn", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	// Add subcommands
	DictCommands.AddCommand(queryCmd)
	DictCommands.AddCommand(addCmd)
	DictCommands.AddCommand(removeCmd)
	DictCommands.AddCommand(addMeaningCmd)
	DictCommands.AddCommand(updateMeaningCmd)
	DictCommands.AddCommand(perfTestCmd)
	DictCommands.AddCommand(stressTestCmd)
	DictCommands.AddCommand(statsCmd)
}

// setupDictClient initializes the RPC dictionary client
func setupDictClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	// Create the dictionary client
	var err error
	rpcDict, err = newDictClient(util.GetClientConfig())
	return err
}

// closeDictClient releases the connections of the client
func closeDictClient(_ *cobra.Command, _ []string) error {
	if rpcDict == nil {
		return nil
	}
	return rpcDict.Close()
}

// newDictClient connects a new client with its own transport (and connections)
func newDictClient(config *common.ClientConfig) (client.IDictionary, error) {
	t, err := util.GetClientTransport()
	if err != nil {
		return nil, err
	}
	return client.NewRPCDictionary(*config, t, serializer.NewJSONSerializer())
}
