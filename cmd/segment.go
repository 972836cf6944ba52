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
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jjjmaes/AIT-sub001/internal/app"
	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/workflow"
)

var segmentCmd = &cobra.Command{
	Use:     "segment",
	Aliases: []string{"seg"},
	Short:   "Translate, review and confirm individual segments",
}

func printSegments(segs []*domain.Segment) error {
	w := newTable()
	fmt.Fprintln(w, "ID\t#\tSTATUS\tISSUES\tSCORE\tSOURCE\tTARGET")
	for _, seg := range segs {
		score := "-"
		if seg.QualityScore != nil {
			score = strconv.Itoa(*seg.QualityScore)
		}
		target := seg.Final()
		if target == "" {
			target = seg.Translation()
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\t%s\t%s\n",
			seg.ID, seg.Index, seg.Status, seg.OpenIssues(), score,
			snippet(seg.SourceText, 40), snippet(target, 40))
	}
	return w.Flush()
}

func printSegment(seg *domain.Segment) error {
	if asJSON {
		return printJSON(seg)
	}
	fmt.Printf("Segment %d (file %d, #%d): %s\n", seg.ID, seg.FileID, seg.Index, seg.Status)
	fmt.Printf("Source:      %s\n", seg.SourceText)
	if t := seg.Translation(); t != "" {
		origin := seg.TranslationMeta.Origin
		if seg.TranslationMeta.Model != "" {
			origin += ", " + seg.TranslationMeta.Model
		}
		fmt.Printf("Translation: %s (%s)\n", t, origin)
	}
	if s := seg.ReviewMeta.SuggestedTranslation; s != "" {
		fmt.Printf("Suggested:   %s\n", s)
	}
	if f := seg.Final(); f != "" {
		fmt.Printf("Final:       %s\n", f)
	}
	if seg.ReviewMeta.ModificationDegree != nil {
		fmt.Printf("Edited:      %.0f%%\n", *seg.ReviewMeta.ModificationDegree*100)
	}
	if seg.QualityScore != nil {
		fmt.Printf("Score:       %d\n", *seg.QualityScore)
	}
	for _, sc := range seg.ReviewMeta.Scores {
		fmt.Printf("  %-12s %.1f\n", sc.Dimension, sc.Value)
	}
	if seg.ErrorMessage != nil {
		fmt.Printf("Error:       %s\n", *seg.ErrorMessage)
	}
	if len(seg.Issues) > 0 {
		fmt.Println()
		printIssues(seg.Issues)
	}
	return nil
}

var segmentStatus string

var segmentListCmd = &cobra.Command{
	Use:   "list <file-id>",
	Short: "List the segments of a file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0], "file")
		if err != nil {
			return err
		}
		segs, err := a.Store.ListSegments(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to list segments: %w", err)
		}
		if segmentStatus != "" {
			kept := segs[:0]
			for _, seg := range segs {
				if string(seg.Status) == segmentStatus {
					kept = append(kept, seg)
				}
			}
			segs = kept
		}
		if asJSON {
			return printJSON(segs)
		}
		return printSegments(segs)
	}),
}

var segmentShowCmd = &cobra.Command{
	Use:   "show <segment-id>",
	Short: "Show a segment with its issues",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0], "segment")
		if err != nil {
			return err
		}
		seg, err := a.Store.GetSegment(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printSegment(seg)
	}),
}

// segmentAction builds a command running op on one segment as the --as user.
func segmentAction(use, short string, op func(cmd *cobra.Command, a *app.App, segmentID, by int64) (*domain.Segment, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <segment-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			by, err := actor()
			if err != nil {
				return err
			}
			id, err := parseID(args[0], "segment")
			if err != nil {
				return err
			}
			seg, err := op(cmd, a, id, by)
			if err != nil {
				return err
			}
			return printSegment(seg)
		}),
	}
}

var segmentTranslateCmd = segmentAction("translate", "Translate one segment from memory or the AI provider",
	func(cmd *cobra.Command, a *app.App, id, by int64) (*domain.Segment, error) {
		return a.Engine.TranslateSegment(cmd.Context(), id, by)
	})

var (
	reviewAssignee int64
	reviewTemplate string
)

var segmentReviewCmd = segmentAction("review", "Run the AI review of a translated segment",
	func(cmd *cobra.Command, a *app.App, id, by int64) (*domain.Segment, error) {
		opts := workflow.ReviewOptions{Template: reviewTemplate}
		if reviewAssignee > 0 {
			opts.ReviewerID = &reviewAssignee
		}
		return a.Engine.StartReview(cmd.Context(), id, by, opts)
	})

var (
	completeText      string
	completeTextFile  string
	completeAcceptAll bool
	completeResolve   []string
)

var segmentCompleteCmd = segmentAction("complete", "Record the reviewer's final text and issue resolutions",
	func(cmd *cobra.Command, a *app.App, id, by int64) (*domain.Segment, error) {
		req := workflow.CompleteReviewRequest{FinalText: completeText, AcceptAll: completeAcceptAll}
		if completeTextFile != "" {
			b, err := os.ReadFile(completeTextFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read final text: %w", err)
			}
			req.FinalText = strings.TrimRight(string(b), "\n")
		}
		for _, arg := range completeResolve {
			r, err := parseResolution(arg)
			if err != nil {
				return nil, err
			}
			req.Resolutions = append(req.Resolutions, r)
		}
		return a.Engine.CompleteReview(cmd.Context(), id, by, req)
	})

var segmentFinalizeCmd = segmentAction("finalize", "Confirm a reviewed segment and store it in the translation memory",
	func(cmd *cobra.Command, a *app.App, id, by int64) (*domain.Segment, error) {
		seg, err := a.Engine.FinalizeSegment(cmd.Context(), id, by)
		if err == nil {
			// Let the scheduled progress refresh land before the app closes.
			a.Progress.Wait()
		}
		return seg, err
	})

// parseResolution reads "index:action[:edited text]".
func parseResolution(s string) (workflow.IssueResolution, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return workflow.IssueResolution{}, domain.Validationf("resolution %q must look like index:action[:text]", s)
	}
	idx, err := parseIndex(parts[0])
	if err != nil {
		return workflow.IssueResolution{}, err
	}
	r := workflow.IssueResolution{Index: idx, Action: domain.Action(parts[1])}
	if len(parts) == 3 {
		r.EditedText = &parts[2]
	}
	return r, nil
}

func parseIndex(s string) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.Validationf("invalid issue index %q", s)
	}
	return idx, nil
}

func init() {
	rootCmd.AddCommand(segmentCmd)

	segmentListCmd.Flags().StringVar(&segmentStatus, "status", "", "Only show segments in this status")

	segmentReviewCmd.Flags().Int64Var(&reviewAssignee, "reviewer", 0, "Assign the review to this user (default: the --as user)")
	segmentReviewCmd.Flags().StringVar(&reviewTemplate, "template", "", "Review prompt template (default from config)")

	segmentCompleteCmd.Flags().StringVar(&completeText, "text", "", "Final text")
	segmentCompleteCmd.Flags().StringVar(&completeTextFile, "text-file", "", "Read the final text from a file")
	segmentCompleteCmd.Flags().BoolVar(&completeAcceptAll, "accept-all", false, "Accept every issue left unresolved")
	segmentCompleteCmd.Flags().StringArrayVar(&completeResolve, "resolve", nil, "Resolve an issue as index:action[:text] (repeatable)")
	segmentCompleteCmd.MarkFlagsMutuallyExclusive("text", "text-file")

	segmentCmd.AddCommand(segmentListCmd)
	segmentCmd.AddCommand(segmentShowCmd)
	segmentCmd.AddCommand(segmentTranslateCmd)
	segmentCmd.AddCommand(segmentReviewCmd)
	segmentCmd.AddCommand(segmentCompleteCmd)
	segmentCmd.AddCommand(segmentFinalizeCmd)
}
