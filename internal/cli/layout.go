package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"searchfox/config"
	"searchfox/internal/adapter/report"
)

var layoutJSON bool

var fieldLayoutCmd = &cobra.Command{
	Use:   "field-layout CLASS",
	Short: "Show the memory layout of a C++ class",
	Args:  cobra.ExactArgs(1),
	RunE:  runFieldLayout,
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the searchfox server is reachable",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

var configInit bool

var configPathCmd = &cobra.Command{
	Use:   "config-path",
	Short: "Print the default config file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(fieldLayoutCmd)
	fieldLayoutCmd.Flags().BoolVar(&layoutJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(pingCmd)

	rootCmd.AddCommand(configPathCmd)
	configPathCmd.Flags().BoolVar(&configInit, "init", false, "write the default config there if none exists")
}

func runFieldLayout(cmd *cobra.Command, args []string) error {
	svc, err := newServices(GetConfig(), logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	layout, err := svc.fieldLayout().Layout(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if layoutJSON {
		output, _ := json.MarshalIndent(layout, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(output))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), report.FieldLayout(layout))
	return nil
}

func runPing(cmd *cobra.Command, args []string) error {
	svc, err := newServices(GetConfig(), logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	rtt, err := svc.client.Ping(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s reachable in %s\n", GetConfig().Client.BaseURL, rtt.Round(time.Millisecond))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)

	if !configInit {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return config.DefaultConfig().Save(path)
}
