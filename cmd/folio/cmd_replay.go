package main

import (
	"fmt"
	"os"

	"folio/internal/viewstate"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Fold a recorded action list and print the final state",
	Long: `Replays a YAML list of actions through the view-state reducer without opening the
page, and prints the resulting state. Rejected actions are reported and skipped.

Example file:
  theme: light
  actions:
    - kind: SET_THEME
      value: dark
    - kind: NAVIGATE
      value: projects`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

type replayFile struct {
	Theme   string             `yaml:"theme"`
	Actions []viewstate.Record `yaml:"actions"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read replay file: %w", err)
	}
	var file replayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse replay file: %w", err)
	}

	theme := viewstate.ThemeLight
	if file.Theme != "" {
		if theme, err = viewstate.ParseTheme(file.Theme); err != nil {
			return err
		}
	}

	actions := make([]viewstate.Action, 0, len(file.Actions))
	for i, r := range file.Actions {
		a, err := viewstate.Decode(r)
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}

	secs := sections()
	final, rejected := viewstate.Replay(viewstate.InitialState(theme, secs), actions, secs)
	for _, err := range rejected {
		fmt.Fprintf(cmd.ErrOrStderr(), "rejected: %v\n", err)
	}

	out, err := yaml.Marshal(final)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
