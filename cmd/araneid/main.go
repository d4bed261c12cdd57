package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "araneid",
	Short: "Discrete-event network emulator",
	Long: `Araneid schedules simulated packet transmissions between emulated hosts
over artificial links modeling loss, propagation delay, bandwidth
bottleneck, and a finite queue. Host TAP devices and containers act as
traffic sources and sinks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("out", "out", "Output directory for logs and state")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	viper.BindPFlag("out", rootCmd.PersistentFlags().Lookup("out"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.SetEnvPrefix("ARANEID")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}

// fatal is the single escalation point for configuration and invariant
// failures: log at error level, exit 1.
func fatal(err error) {
	slog.Error(err.Error())
	os.Exit(1)
}

func logLevel() slog.Level {
	switch viper.GetString("log-level") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
