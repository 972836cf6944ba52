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
)

var tmProject int64

var tmCmd = &cobra.Command{
	Use:     "tm",
	Aliases: []string{"memory"},
	Short:   "Manage the translation memory",
	Long: `List, search, invalidate and clear translation memory entries.

Confirmed segments are stored here and reused as exact matches when the
same source text is translated again within the project.`,
}

var tmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List translation memory entries",
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		entries, err := a.Store.ListMemory(cmd.Context(), tmProject)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}
		if asJSON {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No entries in translation memory.")
			return nil
		}

		w := newTable()
		fmt.Fprintln(w, "ID\tPROJECT\tPAIR\tORIGIN\tUSED\tLAST USED\tINVALID\tSOURCE\tTARGET")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%d\t%s→%s\t%s\t%d\t%s\t%v\t%s\t%s\n",
				e.ID, e.ProjectID, e.SourceLang, e.TargetLang, e.Origin,
				e.UsageCount, e.LastUsed.Format("2006-01-02 15:04"),
				e.Invalidated, snippet(e.SourceText, 40), snippet(e.TargetText, 40))
		}
		return w.Flush()
	}),
}

var tmSearchCmd = &cobra.Command{
	Use:   "search <project-id> <text>",
	Short: "Show exact and fuzzy memory matches for a source text",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0], "project")
		if err != nil {
			return err
		}
		p, err := a.Store.GetProject(cmd.Context(), id)
		if err != nil {
			return err
		}
		matches, err := a.Matcher.FindMatches(cmd.Context(), args[1], p.SourceLang, p.TargetLang, p.ID)
		if err != nil {
			return fmt.Errorf("failed to search memory: %w", err)
		}
		if asJSON {
			return printJSON(matches)
		}
		if len(matches) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		w := newTable()
		fmt.Fprintln(w, "SCORE\tSOURCE\tTARGET")
		for _, m := range matches {
			fmt.Fprintf(w, "%d\t%s\t%s\n", m.Score, snippet(m.SourceText, 50), snippet(m.TargetText, 50))
		}
		return w.Flush()
	}),
}

var tmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		stats, err := a.Store.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		if asJSON {
			return printJSON(stats)
		}

		fmt.Printf("Total entries:   %d\n", stats.TotalEntries)
		fmt.Printf("Active entries:  %d\n", stats.ActiveEntries)
		fmt.Printf("Invalid entries: %d\n", stats.InvalidEntries)
		fmt.Printf("Total usage:     %d\n", stats.TotalUsage)
		return nil
	}),
}

var tmInvalidateCmd = &cobra.Command{
	Use:   "invalidate <id>",
	Short: "Stop using an entry for matches without deleting it",
	Long: `Hide an entry from exact and fuzzy matching. Confirming the same source
text again re-activates it with the new translation.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0], "memory entry")
		if err != nil {
			return err
		}
		if err := a.Store.InvalidateMemory(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to invalidate entry: %w", err)
		}
		fmt.Printf("Invalidated entry: %d\n", id)
		return nil
	}),
}

var tmDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a translation memory entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0], "memory entry")
		if err != nil {
			return err
		}
		if err := a.Store.DeleteMemory(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		fmt.Printf("Deleted entry: %d\n", id)
		return nil
	}),
}

var tmClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove translation memory entries of a project, or all with --project 0",
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		n, err := a.Store.ClearMemory(cmd.Context(), tmProject)
		if err != nil {
			return fmt.Errorf("failed to clear memory: %w", err)
		}
		fmt.Printf("Cleared %d entries from translation memory.\n", n)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(tmCmd)

	tmCmd.PersistentFlags().Int64Var(&tmProject, "project", 0, "Restrict to one project (0 = all projects)")

	tmCmd.AddCommand(tmListCmd)
	tmCmd.AddCommand(tmSearchCmd)
	tmCmd.AddCommand(tmStatsCmd)
	tmCmd.AddCommand(tmInvalidateCmd)
	tmCmd.AddCommand(tmDeleteCmd)
	tmCmd.AddCommand(tmClearCmd)
}
