package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"focustimer/internal/model"
	"focustimer/internal/persist"
	"focustimer/internal/timer"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the timer interactively",
	Long: `Run the timer interactively. Commands are read line by line:

  <enter>       start or pause
  s, start      start
  p, pause      pause
  r, reset      reset the current phase
  m <phase>     switch to focus, short or long
  t [n]         select task n, or clear the selection
  l, tasks      list tasks
  reload        re-read settings
  q, quit       quit`,
	RunE: runTimer,
}

var runTimer = withApp(runInteractive)

func init() {
	addRunFlags(runCmd)
}

// addRunFlags is shared with the root command, which runs the timer too.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "focus", "Initial phase: focus, short or long")
	cmd.Flags().Bool("start", false, "Start the countdown immediately")
}

func runInteractive(cmd *cobra.Command, args []string, a *app) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := a.store.Settings(ctx)
	if err != nil {
		a.logger.Warn("failed to load settings, using defaults", "error", err)
		settings = model.DefaultSettings()
	}

	// Writes outlive ctx so pending records still land after Ctrl-C.
	recorder := timer.NewRecorder(context.WithoutCancel(ctx), a.api, a.logger)
	machine := timer.NewMachine(timer.Options{
		Config:          settings.TimerConfiguration,
		AutoStartBreaks: settings.AutoStartBreaks,
		AutoStartFocus:  settings.AutoStartFocus,
		Auth:            a.creds,
		Recorder:        recorder,
		Tasks:           a.store,
		Logger:          a.logger,
	})
	if err := machine.Restore(ctx); err != nil {
		a.logger.Warn("failed to restore current task", "error", err)
	}

	mode, _ := cmd.Flags().GetString("mode")
	phase, err := model.ParsePhase(mode)
	if err != nil {
		return err
	}
	if err := machine.SetMode(phase); err != nil {
		return err
	}

	c := &console{
		machine:  machine,
		recorder: recorder,
		store:    a.store,
		out:      cmd.OutOrStdout(),
	}
	if start, _ := cmd.Flags().GetBool("start"); start {
		machine.Start()
	}

	err = c.loop(ctx, cmd.InOrStdin())
	machine.Close()
	recorder.Wait()
	return err
}

type console struct {
	machine  *timer.Machine
	recorder *timer.Recorder
	store    persist.Store
	out      io.Writer
	prev     timer.State
}

func (c *console) loop(ctx context.Context, in io.Reader) error {
	states := c.machine.Subscribe(16)
	recorded := c.recorder.Subscribe(4)
	lines := readLines(in)

	fmt.Fprintln(c.out, "enter: start/pause  m <phase>: switch  t <n>: task  q: quit")
	c.prev = c.machine.Snapshot()
	c.render(c.prev)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return nil
		case state, ok := <-states:
			if !ok {
				return nil
			}
			if finished(c.prev, state) {
				fmt.Fprintf(c.out, "\a\r\033[K%s finished, next up: %s\n", phaseTitle(c.prev.Phase), phaseTitle(state.Phase))
			}
			c.prev = state
			c.render(state)
		case event := <-recorded:
			fmt.Fprintf(c.out, "\r\033[Ksession recorded (%d this run)\n", event.Count)
			c.render(c.prev)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := c.handle(ctx, line)
			if err != nil {
				fmt.Fprintf(c.out, "\r\033[K%v\n", err)
				c.render(c.machine.Snapshot())
			}
			if quit {
				fmt.Fprintln(c.out)
				return nil
			}
		}
	}
}

// handle runs one console command and reports whether the loop should end.
func (c *console) handle(ctx context.Context, line string) (bool, error) {
	name, arg := parseCommand(line)
	switch name {
	case "":
		if c.machine.Snapshot().Running {
			c.machine.Pause()
		} else {
			c.machine.Start()
		}
	case "s", "start":
		c.machine.Start()
	case "p", "pause":
		c.machine.Pause()
	case "r", "reset":
		c.machine.Reset()
	case "m", "mode":
		phase, err := model.ParsePhase(arg)
		if err != nil {
			return false, err
		}
		return false, c.machine.SetMode(phase)
	case "t", "task":
		return false, c.selectTask(ctx, arg)
	case "l", "tasks":
		tasks, err := c.store.ListTasks(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprint(c.out, "\r\033[K")
		printTasks(c.out, tasks, c.machine.Task())
		c.render(c.machine.Snapshot())
	case "reload":
		settings, err := c.store.Settings(ctx)
		if err != nil {
			return false, err
		}
		c.machine.SetConfig(settings.TimerConfiguration)
		c.machine.SetAutoStart(settings.AutoStartBreaks, settings.AutoStartFocus)
	case "q", "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", name)
	}
	return false, nil
}

func (c *console) selectTask(ctx context.Context, ref string) error {
	if ref == "" {
		c.machine.SetTask(ctx, nil)
		return nil
	}
	tasks, err := c.store.ListTasks(ctx)
	if err != nil {
		return err
	}
	task, err := pickTask(tasks, ref)
	if err != nil {
		return err
	}
	snapshot := task.Snapshot()
	c.machine.SetTask(ctx, &snapshot)
	return nil
}

func (c *console) render(state timer.State) {
	fmt.Fprintf(c.out, "\r\033[K%s", statusLine(state))
}

func statusLine(state timer.State) string {
	status := "paused"
	if state.Running {
		status = "running"
	}
	line := fmt.Sprintf("%-11s %s  %-7s  cycles %d", phaseTitle(state.Phase), formatClock(state.RemainingSeconds), status, state.FocusCyclesCompleted)
	if state.SelectedTask != nil {
		line += "  > " + state.SelectedTask.Label
	}
	return line
}

// finished reports whether next follows a countdown that ran out.
func finished(prev, next timer.State) bool {
	return prev.Running && prev.RemainingSeconds <= 1 && next.Phase != prev.Phase
}

func parseCommand(line string) (string, string) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func phaseTitle(phase model.Phase) string {
	switch phase {
	case model.PhaseShortBreak:
		return "Short break"
	case model.PhaseLongBreak:
		return "Long break"
	default:
		return "Focus"
	}
}

func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
