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
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Jjjmaes/AIT-sub001/internal/app"
	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage project terminology",
	Long: `Add, list, import and delete glossary entries.

Glossary entries of a project are passed to the translator and the reviewer
so that specific source terms are always rendered with the same target term.`,
}

var glossaryListCmd = &cobra.Command{
	Use:   "list [project-id]",
	Short: "List glossary entries of a project, or of all projects",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		var projectID int64
		if len(args) == 1 {
			var err error
			if projectID, err = parseID(args[0], "project"); err != nil {
				return err
			}
		}
		entries, err := a.Store.ListGlossaryTerms(cmd.Context(), projectID)
		if err != nil {
			return fmt.Errorf("failed to list glossary: %w", err)
		}
		if asJSON {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("Glossary is empty.")
			return nil
		}

		w := newTable()
		fmt.Fprintln(w, "ID\tPROJECT\tSOURCE TERM\tTARGET TERM")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", e.ID, e.ProjectID, e.SourceTerm, e.TargetTerm)
		}
		return w.Flush()
	}),
}

var glossaryAddCmd = &cobra.Command{
	Use:   "add <project-id> <source-term> <target-term>",
	Short: "Add or update a glossary entry",
	Long: `Add a glossary entry mapping a source-language term to a target-language term.

Example:
  ait glossary add 1 "Kyiv" "Київ"`,
	Args: cobra.ExactArgs(3),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		projectID, err := parseID(args[0], "project")
		if err != nil {
			return err
		}
		if _, err := a.Store.GetProject(cmd.Context(), projectID); err != nil {
			return err
		}
		if err := addTerm(cmd, a, projectID, domain.Term{Source: args[1], Target: args[2]}); err != nil {
			return err
		}
		fmt.Printf("Added: %q → %q\n", args[1], args[2])
		return nil
	}),
}

// glossaryFile is the YAML layout read by "glossary import".
type glossaryFile struct {
	Terms []domain.Term `yaml:"terms"`
}

var glossaryImportCmd = &cobra.Command{
	Use:   "import <project-id> <file.yaml>",
	Short: "Import glossary entries from a YAML file",
	Long: `Import glossary entries from YAML. Existing source terms are updated.

  terms:
    - source: cloud
      target: хмара
    - source: Kyiv
      target: Київ`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		projectID, err := parseID(args[0], "project")
		if err != nil {
			return err
		}
		if _, err := a.Store.GetProject(cmd.Context(), projectID); err != nil {
			return err
		}
		b, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read glossary: %w", err)
		}
		var gf glossaryFile
		if err := yaml.Unmarshal(b, &gf); err != nil {
			return domain.Validationf("invalid glossary file %s: %v", args[1], err)
		}
		for i, t := range gf.Terms {
			if err := addTerm(cmd, a, projectID, t); err != nil {
				return fmt.Errorf("term %d: %w", i+1, err)
			}
		}
		fmt.Printf("Imported %d glossary entries into project %d\n", len(gf.Terms), projectID)
		return nil
	}),
}

func addTerm(cmd *cobra.Command, a *app.App, projectID int64, t domain.Term) error {
	src, tgt := strings.TrimSpace(t.Source), strings.TrimSpace(t.Target)
	if src == "" || tgt == "" {
		return domain.Validationf("glossary terms must not be empty")
	}
	if err := a.Store.AddGlossaryTerm(cmd.Context(), projectID, src, tgt); err != nil {
		return fmt.Errorf("failed to add glossary entry: %w", err)
	}
	return nil
}

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a glossary entry by ID",
	Long: `Delete a glossary entry by its ID (shown in "ait glossary list").`,
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0], "glossary entry")
		if err != nil {
			return err
		}
		if err := a.Store.DeleteGlossaryTerm(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete glossary entry: %w", err)
		}
		fmt.Printf("Deleted glossary entry: %d\n", id)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryAddCmd)
	glossaryCmd.AddCommand(glossaryImportCmd)
	glossaryCmd.AddCommand(glossaryDeleteCmd)
}
