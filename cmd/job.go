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
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jjjmaes/AIT-sub001/internal/app"
	"github.com/Jjjmaes/AIT-sub001/internal/jobs"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect translation jobs",
}

// reportJob follows a submitted job until it finishes. Cancelling the
// command context cancels the job and waits for in-flight segments.
func reportJob(cmd *cobra.Command, a *app.App, handle string) error {
	fmt.Fprintf(os.Stderr, "Job %s submitted\n", handle)

	j, err := a.Jobs.Wait(cmd.Context(), handle)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Cancelling job %s...\n", handle)
		ctx := context.WithoutCancel(cmd.Context())
		if err := a.Jobs.Cancel(ctx, handle); err != nil {
			return err
		}
		j, err = a.Jobs.Wait(ctx, handle)
	}
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(j)
	}

	fmt.Printf("Job %s %s: %d done, %d failed, %d skipped of %d\n",
		j.ID, j.Status, j.Progress.Done, j.Progress.Failed, j.Progress.Skipped, j.Progress.Total)
	if j.Progress.Failed > 0 {
		items, err := a.Jobs.Items(context.WithoutCancel(cmd.Context()), handle)
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.Status == jobs.ItemFailed {
				fmt.Printf("  segment %d: %s\n", it.SegmentID, it.Error)
			}
		}
	}
	return nil
}

var jobStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status and progress of a job",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		j, err := a.GetJobStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(j)
		}
		fmt.Printf("Job:      %s (%s)\n", j.ID, j.Type)
		fmt.Printf("Status:   %s\n", j.Status)
		fmt.Printf("Project:  %d\n", j.ProjectID)
		if j.FileID != nil {
			fmt.Printf("File:     %d\n", *j.FileID)
		}
		fmt.Printf("Progress: %d done, %d failed, %d skipped of %d\n",
			j.Progress.Done, j.Progress.Failed, j.Progress.Skipped, j.Progress.Total)
		if j.Error != "" {
			fmt.Printf("Error:    %s\n", j.Error)
		}
		return nil
	}),
}

var jobItemsCmd = &cobra.Command{
	Use:   "items <job-id>",
	Short: "List the per-segment outcomes of a job",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		items, err := a.Jobs.Items(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(items)
		}
		w := newTable()
		fmt.Fprintln(w, "SEGMENT\tSTATUS\tAT\tERROR")
		for _, it := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", it.SegmentID, it.Status, it.CreatedAt.Format("15:04:05"), snippet(it.Error, 80))
		}
		return w.Flush()
	}),
}

var jobListLimit int

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent jobs",
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		list, err := a.Store.ListJobs(cmd.Context(), jobListLimit)
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}
		if asJSON {
			return printJSON(list)
		}
		if len(list) == 0 {
			fmt.Println("No jobs.")
			return nil
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tPROJECT\tDONE\tFAILED\tSKIPPED\tTOTAL\tCREATED")
		for _, j := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
				j.ID, j.Type, j.Status, j.ProjectID, j.Progress.Done, j.Progress.Failed,
				j.Progress.Skipped, j.Progress.Total, j.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	}),
}

var projectTranslateCmd = &cobra.Command{
	Use:   "translate <project-id>",
	Short: "Queue translation of every file of a project",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		by, err := actor()
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "project")
		if err != nil {
			return err
		}
		handle, err := a.Jobs.SubmitProject(cmd.Context(), id, by)
		if err != nil {
			return err
		}
		return reportJob(cmd, a, handle)
	}),
}

func init() {
	rootCmd.AddCommand(jobCmd)

	jobListCmd.Flags().IntVarP(&jobListLimit, "limit", "n", 20, "Maximum number of jobs to show")

	jobCmd.AddCommand(jobStatusCmd)
	jobCmd.AddCommand(jobItemsCmd)
	jobCmd.AddCommand(jobListCmd)
	projectCmd.AddCommand(projectTranslateCmd)
}
