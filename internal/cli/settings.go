package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"focustimer/internal/model"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show timer settings",
	RunE:  withApp(runSettingsShow),
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change timer settings",
	Example: `  focus settings set --focus 50 --short 10
  focus settings set --auto-breaks=true`,
	RunE: withApp(runSettingsSet),
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)

	settingsSetCmd.Flags().Int("focus", 0, "Focus length in minutes")
	settingsSetCmd.Flags().Int("short", 0, "Short break length in minutes")
	settingsSetCmd.Flags().Int("long", 0, "Long break length in minutes")
	settingsSetCmd.Flags().Bool("auto-breaks", false, "Start breaks automatically")
	settingsSetCmd.Flags().Bool("auto-focus", false, "Start focus automatically after a break")
	settingsSetCmd.Flags().String("sound", "", "Alarm sound name")
}

func runSettingsShow(cmd *cobra.Command, args []string, a *app) error {
	settings, err := a.store.Settings(cmd.Context())
	if err != nil {
		return err
	}
	printSettings(cmd.OutOrStdout(), settings)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string, a *app) error {
	settings, err := a.store.Settings(cmd.Context())
	if err != nil {
		return err
	}
	if err := applySettingsFlags(cmd, &settings); err != nil {
		return err
	}

	saved, err := a.store.SaveSettings(cmd.Context(), settings)
	if err != nil {
		return err
	}
	printSettings(cmd.OutOrStdout(), saved)
	return nil
}

func applySettingsFlags(cmd *cobra.Command, settings *model.Settings) error {
	flags := cmd.Flags()
	minutes := map[string]*int{
		"focus": &settings.FocusMinutes,
		"short": &settings.ShortBreakMinutes,
		"long":  &settings.LongBreakMinutes,
	}
	for name, target := range minutes {
		if !flags.Changed(name) {
			continue
		}
		value, _ := flags.GetInt(name)
		if value <= 0 {
			return fmt.Errorf("--%s must be a positive number of minutes", name)
		}
		*target = value
	}
	if flags.Changed("auto-breaks") {
		settings.AutoStartBreaks, _ = flags.GetBool("auto-breaks")
	}
	if flags.Changed("auto-focus") {
		settings.AutoStartFocus, _ = flags.GetBool("auto-focus")
	}
	if flags.Changed("sound") {
		settings.AlarmSound, _ = flags.GetString("sound")
	}
	return nil
}

func printSettings(out io.Writer, settings model.Settings) {
	fmt.Fprintf(out, "focus:        %d min\n", settings.FocusMinutes)
	fmt.Fprintf(out, "short break:  %d min\n", settings.ShortBreakMinutes)
	fmt.Fprintf(out, "long break:   %d min\n", settings.LongBreakMinutes)
	fmt.Fprintf(out, "auto breaks:  %t\n", settings.AutoStartBreaks)
	fmt.Fprintf(out, "auto focus:   %t\n", settings.AutoStartFocus)
	fmt.Fprintf(out, "alarm sound:  %s\n", settings.AlarmSound)
}
