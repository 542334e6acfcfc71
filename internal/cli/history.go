package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"focustimer/internal/model"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded sessions",
	RunE:  withApp(runHistory),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded sessions",
	RunE:  withApp(runStats),
}

func init() {
	for _, cmd := range []*cobra.Command{historyCmd, statsCmd} {
		cmd.Flags().String("period", "day", "One of day, week, month, all")
	}
}

func runHistory(cmd *cobra.Command, args []string, a *app) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	period, _ := cmd.Flags().GetString("period")

	sessions, err := a.api.ListSessions(cmd.Context(), period)
	if err != nil {
		return err
	}
	printHistory(cmd.OutOrStdout(), sessions)
	return nil
}

func runStats(cmd *cobra.Command, args []string, a *app) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	period, _ := cmd.Flags().GetString("period")

	stats, err := a.api.Stats(cmd.Context(), period)
	if err != nil {
		return err
	}
	printStats(cmd.OutOrStdout(), stats)
	return nil
}

func printHistory(out io.Writer, sessions []model.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded.")
		return
	}
	for _, s := range sessions {
		label := ""
		if s.TaskLabel != nil {
			label = *s.TaskLabel
		}
		fmt.Fprintf(out, "%s  %-11s  %-9s  %6s  %s\n",
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			s.Type,
			s.Status,
			formatDuration(s.DurationSeconds),
			label)
	}
}

func printStats(out io.Writer, stats *model.SessionStats) {
	fmt.Fprintf(out, "Period: %s\n", stats.Period)
	fmt.Fprintf(out, "  sessions:     %d (%d completed)\n", stats.TotalSessions, stats.CompletedSessions)
	fmt.Fprintf(out, "  focus:        %d, %s\n", stats.FocusSessions, formatDuration(stats.FocusSeconds))
	fmt.Fprintf(out, "  short breaks: %d\n", stats.ShortBreaks)
	fmt.Fprintf(out, "  long breaks:  %d\n", stats.LongBreaks)
	fmt.Fprintf(out, "  break time:   %s\n", formatDuration(stats.BreakSeconds))
	for _, day := range stats.Days {
		fmt.Fprintf(out, "  %s  %3d sessions  %s focus\n", day.Date, day.Sessions, formatDuration(day.FocusSeconds))
	}
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
