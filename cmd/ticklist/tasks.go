package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/ticklist/internal/app"
	"github.com/five82/ticklist/internal/state"
	"github.com/five82/ticklist/internal/task"
)

// withBackend opens the configured backend, performs the initial load and
// runs fn. Headless commands log store failures to the same file as the TUI.
func withBackend(cmd *cobra.Command, flags *rootFlags, fn func(ctx context.Context, b *app.Backend) error) error {
	ctx := cmd.Context()
	cfg, err := app.LoadConfig(flags.configPath)
	if err != nil {
		return err
	}
	logger, closeLog, err := app.OpenLog(cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	backend, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	if err := backend.Session.Activate(ctx); err != nil {
		return err
	}
	return fn(ctx, backend)
}

// resolveID accepts a full identifier or an unambiguous prefix of one.
func resolveID(store *state.Store, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("task id is empty")
	}
	if _, ok := store.Get(arg); ok {
		return arg, nil
	}
	var matches []string
	for _, t := range store.Snapshot().Tasks {
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", state.ErrNotFound, arg)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("id prefix %q matches %d tasks", arg, len(matches))
}

func parseDeadline(value string, check bool) (task.Date, error) {
	d, err := task.ParseDate(value)
	if err != nil {
		return task.Date{}, err
	}
	if check {
		if err := state.ValidateDeadline(d, timeNow()); err != nil {
			return task.Date{}, err
		}
	}
	return d, nil
}

func listCmd(flags *rootFlags) *cobra.Command {
	var filter, sortOrder, output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := task.ParseFilter(filter)
			if err != nil {
				return err
			}
			o, err := task.ParseSortOrder(sortOrder)
			if err != nil {
				return err
			}
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			return withBackend(cmd, flags, func(ctx context.Context, b *app.Backend) error {
				b.Store.SetFilter(f)
				b.Store.SetSort(o)
				snap := b.Store.Snapshot()
				return writeTasks(cmd.OutOrStdout(), format, snap.Visible, snap.Now)
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "all, pending, completed or overdue")
	cmd.Flags().StringVarP(&sortOrder, "sort", "s", "none", "none, asc or desc (by deadline)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "table, json or yaml")
	return cmd
}

func addCmd(flags *rootFlags) *cobra.Command {
	var due string
	cmd := &cobra.Command{
		Use:   "add TEXT",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deadline, err := parseDeadline(due, true)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			return withBackend(cmd, flags, func(ctx context.Context, b *app.Backend) error {
				op, err := b.Store.Add(text, deadline)
				if err != nil {
					return err
				}
				if err := op.Commit(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", op.ID())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "deadline as YYYY-MM-DD")
	return cmd
}

func editCmd(flags *rootFlags) *cobra.Command {
	var due string
	var clearDue bool
	cmd := &cobra.Command{
		Use:   "edit ID TEXT",
		Short: "Change a task's text and deadline",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearDue && due != "" {
				return errors.New("--due and --clear-due are mutually exclusive")
			}
			text := strings.Join(args[1:], " ")
			return withBackend(cmd, flags, func(ctx context.Context, b *app.Backend) error {
				id, err := resolveID(b.Store, args[0])
				if err != nil {
					return err
				}
				current, _ := b.Store.Get(id)
				deadline := current.Deadline
				switch {
				case clearDue:
					deadline = task.Date{}
				case due != "":
					d, err := task.ParseDate(due)
					if err != nil {
						return err
					}
					// An unchanged deadline may already be in the past.
					if d != current.Deadline {
						if err := state.ValidateDeadline(d, timeNow()); err != nil {
							return err
						}
					}
					deadline = d
				}
				op, err := b.Store.Edit(id, text, deadline)
				if err != nil {
					return err
				}
				if err := op.Commit(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "new deadline as YYYY-MM-DD")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the deadline")
	return cmd
}

func doneCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Toggle a task between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, flags, func(ctx context.Context, b *app.Backend) error {
				id, err := resolveID(b.Store, args[0])
				if err != nil {
					return err
				}
				op, err := b.Store.Toggle(id)
				if err != nil {
					return err
				}
				if err := op.Commit(ctx); err != nil {
					return err
				}
				t, _ := b.Store.Get(id)
				status := "pending"
				if t.Completed {
					status = "completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", id, status)
				return nil
			})
		},
	}
}

func rmCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, flags, func(ctx context.Context, b *app.Backend) error {
				id, err := resolveID(b.Store, args[0])
				if err != nil {
					return err
				}
				op, err := b.Store.Delete(id)
				if err != nil {
					return err
				}
				if err := op.Commit(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
				return nil
			})
		},
	}
}

func clearCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, flags, func(ctx context.Context, b *app.Backend) error {
				n := b.Store.Snapshot().Stats.Completed
				if n == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no completed tasks")
					return nil
				}
				if err := b.Store.ClearCompleted().Commit(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %d completed tasks\n", n)
				return nil
			})
		},
	}
}

func statsCmd(flags *rootFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task counts and completion rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			return withBackend(cmd, flags, func(ctx context.Context, b *app.Backend) error {
				return writeStats(cmd.OutOrStdout(), format, b.Store.Snapshot().Stats)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "table, json or yaml")
	return cmd
}
