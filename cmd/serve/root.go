package serve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	cmdUtil "github.com/ValentinKolb/dDict/cmd/util"
	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
	"github.com/ValentinKolb/dDict/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:   "serve [port] [dict-file]",
		Short: "Start the dDict server",
		Long: `Start the dDict server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DDICT_<flag> (e.g. DDICT_DICT_FILE=words.json).

The optional positional arguments override --endpoint (as 0.0.0.0:<port>, tcp only) and --dict-file.`,
		Args:    cobra.MaximumNArgs(2),
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:4444", cmdUtil.WrapString("The address on which the server will listen (e.g. localhost:4444, /tmp/ddict.sock, ...)"))

	key = "dict-file"
	ServeCmd.PersistentFlags().String(key, "dictionary.json", cmdUtil.WrapString("Path of the JSON file the dictionary is loaded from and saved to. A missing or empty file starts an empty dictionary"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for writing a response (0 = none)"))

	key = "idle-timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Close connections that send no request for this many seconds (0 = never)"))

	key = "max-line-bytes"
	ServeCmd.PersistentFlags().Int(key, common.DefaultMaxLineBytes, cmdUtil.WrapString("Maximum size of a request line in bytes, longer lines close the connection"))

	key = "allow-delay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether clients may ask the server to hold the write lock after a mutation (delay field)"))

	key = "max-delay-ms"
	ServeCmd.PersistentFlags().Int64(key, common.DefaultMaxDelayMillisecond, cmdUtil.WrapString("Upper bound for a requested delay in milliseconds (0 = no limit)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address of the HTTP endpoint serving /metrics, /healthz and /info (e.g. localhost:9090, empty = disabled)"))

	key = "write-buffer"
	ServeCmd.PersistentFlags().Int(key, 64, cmdUtil.WrapString("The size of the socket write buffer (in KB, 0 = OS default)"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, 64, cmdUtil.WrapString("The size of the socket read buffer (in KB, 0 = OS default)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 30, cmdUtil.WrapString("The keepalive interval (in seconds, 0 = disabled, only for tcp)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, -1, cmdUtil.WrapString("The linger time (in seconds, -1 = OS default, only for tcp)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, args []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.DictionaryPath = viper.GetString("dict-file")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.IdleTimeoutSecond = viper.GetInt64("idle-timeout")
	serveCmdConfig.MaxLineBytes = viper.GetInt("max-line-bytes")
	serveCmdConfig.AllowDelay = viper.GetBool("allow-delay")
	serveCmdConfig.MaxDelayMillisecond = viper.GetInt64("max-delay-ms")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Transport = common.ServerTransportConfig{
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("tcp-linger"),
		},
	}

	// positional arguments: [port] [dict-file]
	if len(args) > 0 {
		port, err := strconv.ParseUint(args[0], 10, 16)
		if err != nil || port == 0 {
			return fmt.Errorf("invalid port %q", args[0])
		}
		serveCmdConfig.Endpoint = fmt.Sprintf("0.0.0.0:%d", port)
	}
	if len(args) > 1 {
		serveCmdConfig.DictionaryPath = args[1]
	}

	if serveCmdConfig.DictionaryPath == "" {
		return errors.New("dict-file must not be empty")
	}
	if serveCmdConfig.MaxLineBytes <= 0 {
		return fmt.Errorf("max-line-bytes must be positive, got %d", serveCmdConfig.MaxLineBytes)
	}

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// run starts the dDict server and stops it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		serializer.NewJSONSerializer(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		if err := serv.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "error during shutdown: %v\n", err)
		}
	}()

	if err := serv.Serve(); err != nil {
		return err
	}

	// wait until Stop has completed (closing the store)
	return serv.Stop()
}
