package main

import (
	"context"
	"fmt"

	"folio/internal/logging"
	"folio/internal/prefs"
	"folio/internal/viewstate"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Read or change the saved theme",
	Long: `Reads or changes the theme preference a page session starts with.

A running page watching a file backend picks the change up immediately.`,
}

var themeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the theme the next session will start with",
	Args:  cobra.NoArgs,
	RunE:  getTheme,
}

var themeSetCmd = &cobra.Command{
	Use:       "set [light|dark]",
	Short:     "Save a theme preference",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(viewstate.ThemeLight), string(viewstate.ThemeDark)},
	RunE:      setTheme,
}

// openPreferences opens the configured preference store. When the durable backend is
// unavailable the returned store is in memory and the failure is logged.
func openPreferences(ctx context.Context) (prefs.KV, *prefs.Adapter) {
	log := logging.Get(logging.CategoryPrefs)
	kv, err := prefs.Open(ctx, prefs.Backend(cfg.Preferences.Backend), workspace, cfg.Preferences.Path, log)
	if err != nil {
		log.Warn("preferences will not persist", zap.Error(err))
	}
	return kv, prefs.NewAdapter(kv, log)
}

func getTheme(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	kv, adapter := openPreferences(ctx)
	defer kv.Close()

	source := "saved"
	theme, ok, err := adapter.ReadTheme(ctx)
	if err != nil || !ok {
		source = "detected"
		theme = prefs.ResolveTheme(ctx, nil, prefs.EnvSignal{}.Signal)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", theme, source)
	return nil
}

func setTheme(cmd *cobra.Command, args []string) error {
	theme, err := viewstate.ParseTheme(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	kv, adapter := openPreferences(ctx)
	defer kv.Close()

	if err := adapter.WriteTheme(ctx, theme); err != nil {
		return err
	}
	logging.Audit(logging.AuditThemeExternal, zap.String("theme", string(theme)), zap.String("via", "cli"))
	fmt.Fprintf(cmd.OutOrStdout(), "theme set to %s\n", theme)
	return nil
}
