package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"focustimer/internal/model"
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task"},
	Short:   "Manage tasks",
	RunE:    withApp(runTasksList),
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in order",
	RunE:  withApp(runTasksList),
}

var tasksAddCmd = &cobra.Command{
	Use:   "add [label]",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  withApp(runTasksAdd),
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done [n]",
	Short: "Toggle a task's completed flag",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runTasksDone),
}

var tasksRenameCmd = &cobra.Command{
	Use:   "rename [n] [label]",
	Short: "Rename a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  withApp(runTasksRename),
}

var tasksRemoveCmd = &cobra.Command{
	Use:     "rm [n...]",
	Aliases: []string{"remove"},
	Short:   "Delete tasks",
	Args:    cobra.MinimumNArgs(1),
	RunE:    withApp(runTasksRemove),
}

var tasksSelectCmd = &cobra.Command{
	Use:   "select [n]",
	Short: "Select the task credited by the next focus session",
	Long:  "Select the task credited by the next focus session. Without an argument the selection is cleared.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withApp(runTasksSelect),
}

var tasksMoveCmd = &cobra.Command{
	Use:   "move [from] [to]",
	Short: "Move a task to another position",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runTasksMove),
}

func init() {
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksAddCmd)
	tasksCmd.AddCommand(tasksDoneCmd)
	tasksCmd.AddCommand(tasksRenameCmd)
	tasksCmd.AddCommand(tasksRemoveCmd)
	tasksCmd.AddCommand(tasksSelectCmd)
	tasksCmd.AddCommand(tasksMoveCmd)
}

func runTasksList(cmd *cobra.Command, args []string, a *app) error {
	tasks, err := a.store.ListTasks(cmd.Context())
	if err != nil {
		return err
	}
	current, err := a.store.CurrentTask(cmd.Context())
	if err != nil {
		a.logger.Warn("failed to read current task", "error", err)
	}
	printTasks(cmd.OutOrStdout(), tasks, current)
	return nil
}

func runTasksAdd(cmd *cobra.Command, args []string, a *app) error {
	task, err := a.store.CreateTask(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %q\n", task.Label)
	return nil
}

func runTasksDone(cmd *cobra.Command, args []string, a *app) error {
	task, err := a.taskAt(cmd, args[0])
	if err != nil {
		return err
	}
	completed := !task.Completed
	updated, err := a.store.UpdateTask(cmd.Context(), task.ID, model.TaskPatch{Completed: &completed})
	if err != nil {
		return err
	}
	state := "open"
	if updated.Completed {
		state = "done"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%q is %s\n", updated.Label, state)
	return nil
}

func runTasksRename(cmd *cobra.Command, args []string, a *app) error {
	task, err := a.taskAt(cmd, args[0])
	if err != nil {
		return err
	}
	label := strings.Join(args[1:], " ")
	updated, err := a.store.UpdateTask(cmd.Context(), task.ID, model.TaskPatch{Label: &label})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renamed to %q\n", updated.Label)
	return nil
}

func runTasksRemove(cmd *cobra.Command, args []string, a *app) error {
	tasks, err := a.store.ListTasks(cmd.Context())
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		task, err := pickTask(tasks, arg)
		if err != nil {
			return err
		}
		ids = append(ids, task.ID)
	}

	deleted, err := a.store.DeleteTasks(cmd.Context(), ids)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d task(s)\n", deleted)
	return nil
}

func runTasksSelect(cmd *cobra.Command, args []string, a *app) error {
	if len(args) == 0 {
		if err := a.store.SetCurrentTask(cmd.Context(), nil); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Selection cleared")
		return nil
	}

	task, err := a.taskAt(cmd, args[0])
	if err != nil {
		return err
	}
	snapshot := task.Snapshot()
	if err := a.store.SetCurrentTask(cmd.Context(), &snapshot); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Working on %q\n", task.Label)
	return nil
}

func runTasksMove(cmd *cobra.Command, args []string, a *app) error {
	tasks, err := a.store.ListTasks(cmd.Context())
	if err != nil {
		return err
	}
	ids, err := moveTask(tasks, args[0], args[1])
	if err != nil {
		return err
	}

	reordered, err := a.store.ReorderTasks(cmd.Context(), ids)
	if err != nil {
		return err
	}
	current, _ := a.store.CurrentTask(cmd.Context())
	printTasks(cmd.OutOrStdout(), reordered, current)
	return nil
}

func (a *app) taskAt(cmd *cobra.Command, ref string) (*model.Task, error) {
	tasks, err := a.store.ListTasks(cmd.Context())
	if err != nil {
		return nil, err
	}
	return pickTask(tasks, ref)
}

// pickTask resolves a 1-based list index or a task id.
func pickTask(tasks []model.Task, ref string) (*model.Task, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(tasks) {
			return nil, fmt.Errorf("no task #%d", n)
		}
		return &tasks[n-1], nil
	}
	for i := range tasks {
		if tasks[i].ID == ref {
			return &tasks[i], nil
		}
	}
	return nil, fmt.Errorf("no task %q", ref)
}

// moveTask returns the task ids after moving task from to position to.
func moveTask(tasks []model.Task, from, to string) ([]string, error) {
	task, err := pickTask(tasks, from)
	if err != nil {
		return nil, err
	}
	target, err := strconv.Atoi(to)
	if err != nil || target < 1 || target > len(tasks) {
		return nil, fmt.Errorf("invalid position %q", to)
	}

	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != task.ID {
			ids = append(ids, t.ID)
		}
	}
	ids = append(ids[:target-1], append([]string{task.ID}, ids[target-1:]...)...)
	return ids, nil
}

func printTasks(out io.Writer, tasks []model.Task, current *model.TaskSnapshot) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks yet. Add one with \"focus tasks add\".")
		return
	}
	for i, task := range tasks {
		marker := " "
		if current != nil && current.ID == task.ID {
			marker = ">"
		}
		check := "[ ]"
		if task.Completed {
			check = "[x]"
		}
		fmt.Fprintf(out, "%s %2d. %s %s\n", marker, i+1, check, task.Label)
	}
}
