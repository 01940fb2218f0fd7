package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/upb/llm-gateway/app"
	"github.com/upb/llm-gateway/config"
	"github.com/upb/llm-gateway/services/providers"
	"go.uber.org/zap"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the provider and route table",
	Long: `Print the providers and routes the gateway would serve with the current
configuration: the built-in defaults merged with ROUTING_FILE when set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New(cmd.Context())
		if err != nil {
			return err
		}
		deps, err := app.NewDependencies(cmd.Context(), cfg, zap.NewNop())
		if err != nil {
			return err
		}
		defer deps.Close(context.Background())

		return printRoutes(cmd.OutOrStdout(), deps.Registry)
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

func printRoutes(out io.Writer, registry *providers.Registry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "PROVIDER\tNAME\tURL\tCREDENTIAL")
	for _, id := range registry.ProviderIDs() {
		cfg, _ := registry.Provider(id)
		credential := "missing"
		if cfg.Key != "" {
			credential = "set"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, cfg.Name, cfg.URL, credential)
	}
	fmt.Fprintln(tw)

	table := registry.Routes()
	models := make([]string, 0, len(table))
	for model := range table {
		models = append(models, model)
	}
	sort.Strings(models)

	fmt.Fprintln(tw, "MODEL\tPRIORITY\tPROVIDER\tTARGET MODEL")
	for _, model := range models {
		for i, step := range table[model] {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", model, i+1, step.ProviderID, step.TargetModel)
		}
	}
	return tw.Flush()
}
