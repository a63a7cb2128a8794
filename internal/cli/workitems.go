package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/karulmca/ScurmBoard/internal/client"
)

func workItemsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workitems",
		Aliases: []string{"wi"},
		Short:   "List and edit work items",
	}

	var filter client.WorkItemFilter
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List work items",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			items, err := c.ListWorkItems(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list work items: %w", err)
			}
			return a.print(items)
		},
	}
	listCmd.Flags().StringVar(&filter.Type, "type", "", "Work item type (Epic, Feature, User Story, Task, Bug)")
	listCmd.Flags().StringVar(&filter.State, "state", "", "State")
	listCmd.Flags().StringVar(&filter.AssignedTo, "assigned-to", "", "Assignee")
	listCmd.Flags().StringVar(&filter.Sprint, "sprint", "", "Sprint")
	listCmd.Flags().StringVar(&filter.Search, "search", "", "Free text search")

	createCmd := &cobra.Command{
		Use:   "create <json>",
		Short: "Create a work item from a JSON payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			payload, err := parseJSONArg("payload", args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			item, err := c.CreateWorkItem(ctx, payload)
			if err != nil {
				return fmt.Errorf("failed to create work item: %w", err)
			}
			return a.print(item)
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update <task-id> <json>",
		Short: "Patch a work item",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			payload, err := parseJSONArg("payload", args[1])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			item, err := c.UpdateWorkItem(ctx, args[0], payload)
			if err != nil {
				return fmt.Errorf("failed to update %s: %w", args[0], err)
			}
			return a.print(item)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			if err := c.DeleteWorkItem(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete %s: %w", args[0], err)
			}
			_, _ = fmt.Fprintf(a.out, "Deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, createCmd, updateCmd, deleteCmd)
	return cmd
}

func tasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Legacy task list, history and export",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			tasks, err := c.ListTasks(ctx)
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}
			return a.print(tasks)
		},
	}

	updatesCmd := &cobra.Command{
		Use:   "updates <task-id>",
		Short: "Show the change history of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			updates, err := c.TaskUpdates(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load updates for %s: %w", args[0], err)
			}
			return a.print(updates)
		},
	}

	var outFile string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Download the Excel export of all tasks",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			body, err := c.ExportTasksExcel(ctx)
			if err != nil {
				return err
			}
			defer body.Close()

			f, err := os.Create(outFile)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outFile, err)
			}
			n, err := io.Copy(f, body)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
			_, _ = fmt.Fprintf(a.out, "Wrote %d bytes to %s\n", n, outFile)
			return nil
		},
	}
	exportCmd.Flags().StringVar(&outFile, "out", "tasks.xlsx", "Destination file")

	cmd.AddCommand(listCmd, updatesCmd, exportCmd)
	return cmd
}

func reportsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "reports <daily|weekly|monthly>",
		Short:     "Show a status report",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"daily", "weekly", "monthly"},
		RunE: func(_ *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			report, err := c.Report(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load %s report: %w", args[0], err)
			}
			return a.print(report)
		},
	}
}

func importCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Upload an ADO dump (CSV, Excel or JSON) to the importer",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			result, err := c.UploadImport(ctx, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			return a.print(result)
		},
	}
}
