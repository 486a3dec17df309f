package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"refinener/internal/provider"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List extraction providers and their settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tKIND\tCONFIGURED\tSETTINGS")
		for _, info := range providers.List() {
			settings := make([]string, 0, len(info.SettingNames))
			for _, name := range info.SettingNames {
				settings = append(settings, fmt.Sprintf("%s=%s", name, info.DefaultSettings[name]))
			}
			fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", info.Name, info.Kind, info.Configured, strings.Join(settings, "; "))
		}
		return tw.Flush()
	},
}

var providersSetCmd = &cobra.Command{
	Use:   "set NAME",
	Short: "Update a provider's credentials or default settings",
	Long: `Updates a provider and saves it to the provider settings file.

Example:
  nerctl providers set Dandelion --api-key TOKEN --setting "Language=en"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var update provider.Update
		if cmd.Flags().Changed("api-key") {
			v, _ := cmd.Flags().GetString("api-key")
			update.APIKey = &v
		}
		if cmd.Flags().Changed("app-id") {
			v, _ := cmd.Flags().GetString("app-id")
			update.AppID = &v
		}
		if cmd.Flags().Changed("endpoint") {
			v, _ := cmd.Flags().GetString("endpoint")
			update.Endpoint = &v
		}
		pairs, _ := cmd.Flags().GetStringArray("setting")
		for _, p := range pairs {
			k, v, ok := strings.Cut(p, "=")
			if !ok || k == "" {
				return fmt.Errorf("invalid --setting %q: want SETTING=VALUE", p)
			}
			if update.Settings == nil {
				update.Settings = make(map[string]string)
			}
			update.Settings[k] = v
		}

		info, err := providers.Configure(args[0], update)
		if err != nil {
			return err
		}
		names := append([]string(nil), info.SettingNames...)
		sort.Strings(names)
		fmt.Printf("Updated %s (configured: %t)\n", info.Name, info.Configured)
		for _, n := range names {
			fmt.Printf("  %s = %s\n", n, info.DefaultSettings[n])
		}
		return nil
	},
}

func init() {
	providersSetCmd.Flags().String("api-key", "", "API key or token")
	providersSetCmd.Flags().String("app-id", "", "Application ID, for providers that use one")
	providersSetCmd.Flags().String("endpoint", "", "Override the API endpoint")
	providersSetCmd.Flags().StringArray("setting", nil, "Default setting SETTING=VALUE (repeatable)")
	providersCmd.AddCommand(providersSetCmd)
}
