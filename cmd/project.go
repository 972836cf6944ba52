/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jjjmaes/AIT-sub001/internal/app"
	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage translation projects and their members",
}

var (
	projectSource       string
	projectTarget       string
	projectDomain       string
	projectInstructions string
)

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project managed by the --as user",
	Long: `Create a project for one language pair. The --as user becomes its manager.

Example:
  ait project create "Docs" --source en --target uk --domain software --as 1`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		manager, err := actor()
		if err != nil {
			return err
		}
		p := &domain.Project{
			Name:         args[0],
			SourceLang:   projectSource,
			TargetLang:   projectTarget,
			ManagerID:    manager,
			Domain:       projectDomain,
			Instructions: projectInstructions,
		}
		if err := a.CreateProject(cmd.Context(), p); err != nil {
			return err
		}
		if asJSON {
			return printJSON(p)
		}
		fmt.Printf("Created project %d: %s (%s→%s)\n", p.ID, p.Name, p.SourceLang, p.TargetLang)
		return nil
	}),
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		projects, err := a.Store.ListProjects(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		if asJSON {
			return printJSON(projects)
		}
		if len(projects) == 0 {
			fmt.Println("No projects.")
			return nil
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tNAME\tPAIR\tMANAGER\tSTATUS\tDONE\tWORDS")
		for _, p := range projects {
			fmt.Fprintf(w, "%d\t%s\t%s→%s\t%d\t%s\t%d%%\t%d/%d\n",
				p.ID, p.Name, p.SourceLang, p.TargetLang, p.ManagerID, p.Status,
				p.Progress.CompletionPercentage, p.Progress.TranslatedWords, p.Progress.TotalWords)
		}
		return w.Flush()
	}),
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project with its files",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0], "project")
		if err != nil {
			return err
		}
		p, err := a.Store.GetProject(cmd.Context(), id)
		if err != nil {
			return err
		}
		files, err := a.Store.ListFiles(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to list files: %w", err)
		}
		if asJSON {
			return printJSON(struct {
				*domain.Project
				Files []*domain.File `json:"files"`
			}{p, files})
		}

		fmt.Printf("Project %d: %s\n", p.ID, p.Name)
		fmt.Printf("Languages:  %s → %s\n", p.SourceLang, p.TargetLang)
		fmt.Printf("Manager:    %d\n", p.ManagerID)
		if p.Domain != "" {
			fmt.Printf("Domain:     %s\n", p.Domain)
		}
		fmt.Printf("Status:     %s (%d%%, %d of %d words)\n", p.Status,
			p.Progress.CompletionPercentage, p.Progress.TranslatedWords, p.Progress.TotalWords)
		if len(files) == 0 {
			return nil
		}
		fmt.Println()
		return printFiles(files)
	}),
}

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage project members",
}

var memberAddCmd = &cobra.Command{
	Use:   "add <project-id> <user-id> <role>",
	Short: "Grant a role (manager, reviewer, translator) on a project",
	Args:  cobra.ExactArgs(3),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		by, err := actor()
		if err != nil {
			return err
		}
		projectID, err := parseID(args[0], "project")
		if err != nil {
			return err
		}
		userID, err := parseID(args[1], "user")
		if err != nil {
			return err
		}
		m := domain.Member{UserID: userID, Role: domain.Role(args[2])}
		if err := a.AddMember(cmd.Context(), projectID, by, m); err != nil {
			return err
		}
		fmt.Printf("User %d is now %s of project %d\n", userID, m.Role, projectID)
		return nil
	}),
}

var memberListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List project members",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		projectID, err := parseID(args[0], "project")
		if err != nil {
			return err
		}
		members, err := a.Store.ListMembers(cmd.Context(), projectID)
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		if asJSON {
			return printJSON(members)
		}
		w := newTable()
		fmt.Fprintln(w, "USER\tROLE\tSINCE")
		for _, m := range members {
			fmt.Fprintf(w, "%d\t%s\t%s\n", m.UserID, m.Role, m.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	}),
}

func init() {
	rootCmd.AddCommand(projectCmd)

	projectCreateCmd.Flags().StringVarP(&projectSource, "source", "s", "", "Source language code (required)")
	projectCreateCmd.Flags().StringVarP(&projectTarget, "target", "t", "", "Target language code (required)")
	projectCreateCmd.Flags().StringVar(&projectDomain, "domain", "", "Subject domain passed to the providers")
	projectCreateCmd.Flags().StringVar(&projectInstructions, "instructions", "", "Free-form instructions passed to the providers")
	projectCreateCmd.MarkFlagRequired("source")
	projectCreateCmd.MarkFlagRequired("target")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(memberCmd)
	memberCmd.AddCommand(memberAddCmd)
	memberCmd.AddCommand(memberListCmd)
}
