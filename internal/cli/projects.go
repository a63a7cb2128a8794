package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func projectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Projects and sprints",
	}

	var orgID int64
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			var org *int64
			if cmd.Flags().Changed("org") {
				org = &orgID
			}
			projects, err := c.ListProjects(ctx, org)
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", err)
			}
			return a.print(projects)
		},
	}
	scopeFlag(listCmd, &orgID)

	var projectID int64
	sprintsCmd := &cobra.Command{
		Use:   "sprints",
		Short: "List the sprints of a project",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			sprints, err := c.ListSprints(ctx, projectID)
			if err != nil {
				return fmt.Errorf("failed to list sprints: %w", err)
			}
			return a.print(sprints)
		},
	}
	sprintsCmd.Flags().Int64Var(&projectID, "project", 0, "Project id")
	_ = sprintsCmd.MarkFlagRequired("project")

	cmd.AddCommand(listCmd, sprintsCmd)
	return cmd
}

func teamsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Teams and their members",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List teams",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			teams, err := c.ListTeams(ctx)
			if err != nil {
				return fmt.Errorf("failed to list teams: %w", err)
			}
			return a.print(teams)
		},
	}

	var teamID int64
	membersCmd := &cobra.Command{
		Use:   "members",
		Short: "List the members of a team",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			members, err := c.ListTeamUsers(ctx, teamID)
			if err != nil {
				return fmt.Errorf("failed to list team members: %w", err)
			}
			return a.print(members)
		},
	}
	membersCmd.Flags().Int64Var(&teamID, "team", 0, "Team id")
	_ = membersCmd.MarkFlagRequired("team")

	cmd.AddCommand(listCmd, membersCmd)
	return cmd
}
