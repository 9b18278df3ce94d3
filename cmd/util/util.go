package util

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ValentinKolb/dLock/lib/lock"
	"github.com/ValentinKolb/dLock/lib/sharedlock"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
	"github.com/ValentinKolb/dLock/rpc/transport/http"
	"github.com/ValentinKolb/dLock/rpc/transport/tcp"
	"github.com/ValentinKolb/dLock/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (e.g. DLOCK_TIMEOUT)
	EnvPrefix = "dlock"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and binds environment variables with the DLOCK_ prefix
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// SetupRPCClientFlags adds common RPC connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command, defaultShard int) {
	key := "shard"
	cmd.PersistentFlags().Int(key, defaultShard, WrapString("ID of the shard to connect to"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds of the client"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "error", WrapString("LogLevel of the client (debug, info, warn, error)"))

	key = "transport-endpoints"
	cmd.PersistentFlags().String(key, "http://localhost:8080", WrapString("The address of the dLock server. For transports that support load balancing, multiple endpoints can be specified as a comma-separated list"))

	key = "transport-conn-per-endpoint"
	cmd.PersistentFlags().Int(key, 1, WrapString("Simultaneous connections per endpoint - for transports that support this feature"))

	key = "transport-retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to try a request. Retried releases may report false if the first attempt reached the server"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the write buffer for the transport (in KB, ignored for http)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the read buffer for the transport (in KB, ignored for http)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY for the transport (only for tcp)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval for the transport (in seconds, only for tcp)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("The linger time for the transport (in seconds, only for tcp, 0 keeps the OS default)"))
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		TimeoutSecond: viper.GetInt("timeout"),
		Transport: common.ClientTransportConfig{
			RetryCount:             viper.GetInt("transport-retries"),
			Endpoints:              strings.Split(viper.GetString("transport-endpoints"), ","),
			ConnectionsPerEndpoint: viper.GetInt("transport-conn-per-endpoint"),
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			},
		},
	}
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "gob":
		return serializer.NewGOBSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// GetClientTransport creates a client transport based on configuration
func GetClientTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpClientTransport(), nil
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates a server transport based on configuration
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpServerTransport(), nil
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetShardID retrieves the configured shard ID
func GetShardID() uint64 {
	return uint64(viper.GetInt("shard"))
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetupClient binds the flags of cmd, configures logging and returns the
// client config, serializer and transport selected by the flags
func SetupClient(cmd *cobra.Command) (*common.ClientConfig, serializer.IRPCSerializer, transport.IRPCClientTransport, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, nil, nil, err
	}
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return nil, nil, nil, err
	}

	s, err := GetSerializer()
	if err != nil {
		return nil, nil, nil, err
	}
	t, err := GetClientTransport()
	if err != nil {
		return nil, nil, nil, err
	}
	return GetClientConfig(), s, t, nil
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

// FormatExpiration renders an expiration as RFC3339 with the remaining time, "never" for nil
func FormatExpiration(exp *time.Time) string {
	if exp == nil {
		return "never"
	}
	return fmt.Sprintf("%s (in %s)", exp.Format(time.RFC3339Nano), time.Until(*exp).Round(time.Millisecond))
}

// FormatLockState renders the state of an exclusive lock
func FormatLockState(key string, state *lock.State) string {
	if state == nil {
		return fmt.Sprintf("key=%s mode=free", key)
	}
	return fmt.Sprintf("key=%s mode=locked owner=%s expires=%s", key, state.Owner, FormatExpiration(state.Expiration))
}

// FormatSharedLockState renders the state of a shared lock, one line per reader slot
func FormatSharedLockState(key string, state *sharedlock.State) string {
	switch {
	case state == nil:
		return fmt.Sprintf("key=%s mode=free", key)
	case state.Writer != nil:
		return fmt.Sprintf("key=%s mode=writer owner=%s expires=%s", key, state.Writer.Owner, FormatExpiration(state.Writer.Expiration))
	case state.Reader != nil:
		ids := make([]string, 0, len(state.Reader.AcquiredSlots))
		for id := range state.Reader.AcquiredSlots {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		var b strings.Builder
		fmt.Fprintf(&b, "key=%s mode=reader slots=%d/%d", key, len(ids), state.Reader.Limit)
		for _, id := range ids {
			fmt.Fprintf(&b, "\n  reader=%s expires=%s", id, FormatExpiration(state.Reader.AcquiredSlots[id]))
		}
		return b.String()
	default:
		return fmt.Sprintf("key=%s mode=unknown", key)
	}
}
