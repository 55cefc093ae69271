package serve

import (
	"fmt"
	"net"
	"strconv"

	cmdUtil "github.com/ValentinKolb/tKV/cmd/util"
	"github.com/ValentinKolb/tKV/rpc/common"
	"github.com/ValentinKolb/tKV/rpc/server"
	"github.com/ValentinKolb/tKV/rpc/transport/tcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = common.DefaultServerConfig()
	ServeCmd       = &cobra.Command{
		Use:   "serve <port>",
		Short: "Start the tKV server",
		Long: `Start the tKV server on the given TCP port. The port is required.

The configuration can be set via command line flags or environment variables. The format of the environment variables is TKV_<flag> (e.g. TKV_LOG_LEVEL=debug)`,
		Args:    cobra.ExactArgs(1),
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "host"
	ServeCmd.PersistentFlags().String(key, "127.0.0.1", cmdUtil.WrapString("The address the server binds to"))

	key = "workers"
	ServeCmd.PersistentFlags().Int(key, 12, cmdUtil.WrapString("Number of worker goroutines. Every connection occupies one worker until it is closed, further connections wait in a queue"))

	key = "buffer-size"
	ServeCmd.PersistentFlags().Int(key, 1024, cmdUtil.WrapString("Size of the read buffer in bytes. This is the maximum length of a command"))

	key = "framing"
	ServeCmd.PersistentFlags().String(key, string(common.FramingRead), cmdUtil.WrapString("How commands are separated: 'read' treats every read as one command, 'line' splits commands at newlines"))

	key = "idle-timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Close connections that send nothing for this many seconds (0 disables the timeout)"))

	key = "rate-limit"
	ServeCmd.PersistentFlags().Float64(key, 0, cmdUtil.WrapString("Maximum commands per second per connection (0 disables rate limiting)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address of the HTTP endpoint serving Prometheus metrics at /metrics, e.g. 127.0.0.1:9100 (empty disables it)"))

	key = "stats-interval"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Log worker pool statistics every this many seconds (0 disables it)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY on accepted connections"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval in seconds (0 disables keepalive)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, -1, cmdUtil.WrapString("The linger time in seconds (-1 keeps the OS default)"))
}

// parsePort converts the port argument into a TCP port
func parsePort(arg string) (uint16, error) {
	port, err := strconv.ParseUint(arg, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: must be a number between 0 and 65535", arg)
	}
	return uint16(port), nil
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, args []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	port, err := parsePort(args[0])
	if err != nil {
		return err
	}

	framing, err := common.ParseFramingMode(viper.GetString("framing"))
	if err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = net.JoinHostPort(viper.GetString("host"), strconv.Itoa(int(port)))
	serveCmdConfig.Workers = viper.GetInt("workers")
	serveCmdConfig.BufferSize = viper.GetInt("buffer-size")
	serveCmdConfig.Framing = framing
	serveCmdConfig.IdleTimeoutSecond = viper.GetInt64("idle-timeout")
	serveCmdConfig.RateLimit = viper.GetFloat64("rate-limit")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.StatsIntervalSecond = viper.GetInt64("stats-interval")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.TCPConf = common.TCPConf{
		TCPNoDelay:      viper.GetBool("tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
		TCPLingerSec:    viper.GetInt("tcp-linger"),
	}

	return serveCmdConfig.Validate()
}

// run starts the tKV server and blocks until it is stopped by a signal
func run(_ *cobra.Command, _ []string) error {
	serv, err := server.NewServer(serveCmdConfig, tcp.NewTCPServerTransport())
	if err != nil {
		return err
	}

	return serv.Serve()
}
