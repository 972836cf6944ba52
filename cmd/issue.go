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
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jjjmaes/AIT-sub001/internal/app"
	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/workflow"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Add, resolve and reopen review issues",
}

func printIssues(list []domain.Issue) {
	w := newTable()
	fmt.Fprintln(w, "#\tTYPE\tSEVERITY\tSTATUS\tDESCRIPTION\tSUGGESTION")
	for i, is := range list {
		status := string(is.Status)
		if is.Resolution != nil {
			status += " (" + string(is.Resolution.Action) + ")"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i, is.Type, is.Severity, status, snippet(is.Description, 60), snippet(deref(is.Suggestion), 40))
	}
	w.Flush()
}

var (
	issueType       string
	issueSeverity   string
	issueSuggestion string
)

var issueAddCmd = &cobra.Command{
	Use:   "add <segment-id> <description>",
	Short: "Attach a manual issue to a segment",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		by, err := actor()
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "segment")
		if err != nil {
			return err
		}
		is := domain.Issue{
			Type:        domain.IssueType(issueType),
			Severity:    domain.Severity(issueSeverity),
			Description: args[1],
		}
		if issueSuggestion != "" {
			is.Suggestion = &issueSuggestion
		}
		seg, err := a.Engine.AddIssue(cmd.Context(), id, by, is)
		if err != nil {
			return err
		}
		return printSegment(seg)
	}),
}

var (
	resolveText    string
	resolveComment string
)

var issueResolveCmd = &cobra.Command{
	Use:   "resolve <segment-id> <index> <accept|modify|reject>",
	Short: "Resolve one issue of a segment",
	Args:  cobra.ExactArgs(3),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		by, err := actor()
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "segment")
		if err != nil {
			return err
		}
		idx, err := parseIndex(args[1])
		if err != nil {
			return err
		}
		r := workflow.IssueResolution{Index: idx, Action: domain.Action(args[2]), Comment: resolveComment}
		if cmd.Flags().Changed("text") {
			r.EditedText = &resolveText
		}
		seg, err := a.Engine.ResolveIssue(cmd.Context(), id, idx, by, r)
		if err != nil {
			return err
		}
		return printSegment(seg)
	}),
}

var issueReopenCmd = &cobra.Command{
	Use:   "reopen <segment-id> <index>",
	Short: "Reopen a resolved or rejected issue",
	Long: `Reopen a settled issue. A segment that had completed review or was
confirmed goes back to review_pending.`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		by, err := actor()
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "segment")
		if err != nil {
			return err
		}
		idx, err := parseIndex(args[1])
		if err != nil {
			return err
		}
		seg, err := a.Engine.ReopenIssue(cmd.Context(), id, idx, by)
		if err != nil {
			return err
		}
		return printSegment(seg)
	}),
}

var (
	batchTypes      []string
	batchSeverities []string
)

var issueBatchCmd = &cobra.Command{
	Use:   "batch <file-id> <accept|reject>",
	Short: "Resolve every matching open issue of a file",
	Long: `Resolve the open issues of a file that match the type and severity
filters. Empty filters match every issue.

Example:
  ait issue batch 3 reject --severity low --type style --as 2`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		by, err := actor()
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "file")
		if err != nil {
			return err
		}
		var f domain.IssueFilter
		for _, t := range batchTypes {
			f.Types = append(f.Types, domain.IssueType(strings.TrimSpace(t)))
		}
		for _, s := range batchSeverities {
			f.Severities = append(f.Severities, domain.Severity(strings.TrimSpace(s)))
		}
		r := workflow.IssueResolution{Action: domain.Action(args[1]), Comment: resolveComment}

		res, err := a.Engine.BatchResolveIssues(cmd.Context(), id, by, f, r)
		if asJSON && err == nil {
			return printJSON(res)
		}
		fmt.Printf("Resolved %d issues in %d segments\n", res.ResolvedIssues, res.ModifiedSegments)
		return err
	}),
}

func init() {
	rootCmd.AddCommand(issueCmd)

	issueAddCmd.Flags().StringVar(&issueType, "type", string(domain.IssueOther), "Issue type")
	issueAddCmd.Flags().StringVar(&issueSeverity, "severity", string(domain.SeverityMedium), "Issue severity: low, medium, high, critical")
	issueAddCmd.Flags().StringVar(&issueSuggestion, "suggestion", "", "Suggested replacement text")

	issueResolveCmd.Flags().StringVar(&resolveText, "text", "", "Edited text, required for modify")
	issueResolveCmd.Flags().StringVar(&resolveComment, "comment", "", "Resolution comment")

	issueBatchCmd.Flags().StringSliceVar(&batchTypes, "type", nil, "Issue types to match (comma-separated)")
	issueBatchCmd.Flags().StringSliceVar(&batchSeverities, "severity", nil, "Severities to match (comma-separated)")
	issueBatchCmd.Flags().StringVar(&resolveComment, "comment", "", "Resolution comment")

	issueCmd.AddCommand(issueAddCmd)
	issueCmd.AddCommand(issueResolveCmd)
	issueCmd.AddCommand(issueReopenCmd)
	issueCmd.AddCommand(issueBatchCmd)
}
