package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"refinener/internal/dataset"
	"refinener/internal/domain"
	"refinener/internal/extraction"
	"refinener/internal/port"
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Add named-entity columns extracted from a column",
	Long: `Sends every in-scope cell of --column to each --provider and inserts one
result column per provider to the right of it. Rows with several entities are
expanded into extra rows. The file is rewritten in place and the change is
recorded so it can be undone.

Settings are given as PROVIDER:SETTING=VALUE, for example
  --set "Dandelion:Min confidence=0.7"

Row filters are given as COLUMN~TEXT (contains), COLUMN!~TEXT (does not
contain), COLUMN= (blank) or COLUMN!= (not blank).

Press Ctrl-C to cancel; a canceled run leaves the file unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		column, _ := cmd.Flags().GetString("column")
		names, _ := cmd.Flags().GetStringSlice("provider")
		sets, _ := cmd.Flags().GetStringArray("set")
		wheres, _ := cmd.Flags().GetStringArray("where")
		skip, _ := cmd.Flags().GetBool("skip-unconfigured")

		settings, err := parseSettings(sets)
		if err != nil {
			return err
		}
		filter, err := parseFilter(wheres)
		if err != nil {
			return err
		}
		extractors, err := configuredProviders(names, skip, settings)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ws, err := openWorkspace(ctx, args[0])
		if err != nil {
			return err
		}
		defer ws.Close()

		var scope port.RowScope
		err = ws.project.View(func(ds port.Dataset) error {
			var serr error
			scope, serr = dataset.BuildScope(ds, filter)
			return serr
		})
		if err != nil {
			return err
		}

		orch := extraction.NewOrchestrator(cfg.Extraction)
		plan, err := orch.Prepare(ws.project, extraction.Request{
			Column:    column,
			Providers: extractors,
			Settings:  settings,
			Scope:     scope,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Extracting %d of %d rows with %s\n",
			plan.InScopeCount(), plan.RowCount(), strings.Join(plan.ProviderNames(), ", "))
		matrix, err := orch.Execute(ctx, plan, func(percent int) {
			fmt.Fprintf(os.Stderr, "\r%3d%%", percent)
		})
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}

		change, err := plan.NewChange(matrix)
		if err != nil {
			return err
		}
		// The change is recorded even if the user cancels from here on.
		entry, err := ws.commit(context.WithoutCancel(ctx), extraction.Description(column), change)
		if err != nil {
			return err
		}

		fmt.Printf("#%d %s: %s\n", entry.Seq, entry.Description, change.Description())
		if n := matrix.Failures(); n > 0 {
			fmt.Printf("%d provider call(s) failed; see error cells\n", n)
		}
		if added := len(change.AddedRowIDs()); added > 0 {
			fmt.Printf("%d row(s) added for cells with several entities\n", added)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringP("column", "c", "", "Source column name")
	extractCmd.Flags().StringSliceP("provider", "p", nil, "Provider names, in result column order")
	extractCmd.Flags().StringArray("set", nil, "Extraction setting PROVIDER:SETTING=VALUE (repeatable)")
	extractCmd.Flags().StringArray("where", nil, "Row filter (repeatable, combined with AND)")
	extractCmd.Flags().Bool("skip-unconfigured", false, "Leave out providers without credentials instead of failing")
	_ = extractCmd.MarkFlagRequired("column")
	_ = extractCmd.MarkFlagRequired("provider")
}

// configuredProviders resolves names and drops or rejects providers that
// lack credentials. Settings for dropped providers are removed.
func configuredProviders(names []string, skip bool, settings map[string]map[string]string) ([]port.Extractor, error) {
	all, err := providers.Resolve(names)
	if err != nil {
		return nil, err
	}
	out := make([]port.Extractor, 0, len(all))
	for _, ex := range all {
		if ex.IsConfigured() {
			out = append(out, ex)
			continue
		}
		if !skip {
			return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotConfigured, ex.Name())
		}
		fmt.Fprintf(os.Stderr, "Skipping %s: not configured\n", ex.Name())
		delete(settings, ex.Name())
	}
	if len(out) == 0 {
		return nil, domain.ErrNoProviders
	}
	return out, nil
}

// parseSettings reads PROVIDER:SETTING=VALUE flags.
func parseSettings(values []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	for _, v := range values {
		target, value, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: want PROVIDER:SETTING=VALUE", v)
		}
		name, setting, ok := strings.Cut(target, ":")
		if !ok || name == "" || setting == "" {
			return nil, fmt.Errorf("invalid --set %q: want PROVIDER:SETTING=VALUE", v)
		}
		if out[name] == nil {
			out[name] = make(map[string]string)
		}
		out[name][setting] = value
	}
	return out, nil
}

// parseFilter reads --where expressions into facets.
func parseFilter(values []string) (domain.FilterConfig, error) {
	var cfg domain.FilterConfig
	for _, v := range values {
		var f domain.Facet
		switch {
		case strings.Contains(v, "!~"):
			f.Column, f.Query, _ = strings.Cut(v, "!~")
			f.Mode, f.Invert = domain.FilterModeText, true
		case strings.Contains(v, "~"):
			f.Column, f.Query, _ = strings.Cut(v, "~")
			f.Mode = domain.FilterModeText
		case strings.HasSuffix(v, "!="):
			f.Column, f.Mode = strings.TrimSuffix(v, "!="), domain.FilterModeNonBlank
		case strings.HasSuffix(v, "="):
			f.Column, f.Mode = strings.TrimSuffix(v, "="), domain.FilterModeBlank
		default:
			return cfg, fmt.Errorf("%w: cannot parse --where %q", domain.ErrInvalidScope, v)
		}
		cfg.Facets = append(cfg.Facets, f)
	}
	return cfg, nil
}
