package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagGatewayURL string
	flagAPIKey     string
)

var rootCmd = &cobra.Command{
	Use:   "gateway-cli",
	Short: "gateway-cli is the command-line interface for the function gateway.",
	Long:  `A CLI for uploading functions to the gateway, running them synchronously, and checking gateway health.`,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&flagGatewayURL, "gateway-url", "u", "http://localhost:8080", "Base URL of the gateway")
	rootCmd.PersistentFlags().StringVarP(&flagAPIKey, "api-key", "k", "", "API key sent in the x-api-key header")

	if err := viper.BindPFlag("GATEWAY_URL", rootCmd.PersistentFlags().Lookup("gateway-url")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("API_KEY", rootCmd.PersistentFlags().Lookup("api-key")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
}

// initConfig reads in ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("GW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func gatewayURL() string {
	return strings.TrimSuffix(viper.GetString("GATEWAY_URL"), "/")
}

func apiKey() string {
	return viper.GetString("API_KEY")
}
