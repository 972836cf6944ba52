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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jjjmaes/AIT-sub001/internal/app"
	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/markdown"
	"github.com/Jjjmaes/AIT-sub001/internal/segmenter"
	"github.com/Jjjmaes/AIT-sub001/internal/validator"
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Import, inspect, translate and export project files",
}

var (
	importName      string
	importFormat    string
	importColumn    int
	importHeader    bool
	importMaxChars  int
	importCheckLang bool
)

var fileImportCmd = &cobra.Command{
	Use:   "import <project-id> <path>",
	Short: "Import a file as a list of segments",
	Long: `Import a file as a list of segments. Formats:

  lines       one segment per line (default)
  paragraphs  one segment per blank-line separated paragraph
  csv         one segment per cell of --column
  markdown    one segment per heading, paragraph and list item

With --max-chars longer segments are split at sentence boundaries.
Blank segments are dropped. Use "-" to read from stdin.

Example:
  ait file import 1 ui.txt --as 1
  ait file import 1 strings.csv --format csv --column 1 --header --as 1
  ait file import 1 README.md --format markdown --max-chars 400 --as 1`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		by, err := actor()
		if err != nil {
			return err
		}
		projectID, err := parseID(args[0], "project")
		if err != nil {
			return err
		}

		var r io.Reader = os.Stdin
		if args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open input file: %w", err)
			}
			defer f.Close()
			r = f
		}
		sources, err := readSegments(r, importFormat)
		if err != nil {
			return err
		}
		sources = segmenter.SplitAll(sources, importMaxChars)

		name := importName
		if name == "" {
			name = filepath.Base(args[1])
		}
		if importCheckLang {
			warnSourceLanguage(cmd, a, projectID, sources)
		}

		f, err := a.ImportFile(cmd.Context(), projectID, by, name, sources)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(f)
		}
		fmt.Printf("Imported file %d: %s (%d segments)\n", f.ID, f.Name, f.Progress.Total)
		return nil
	}),
}

func readSegments(r io.Reader, format string) ([]string, error) {
	switch format {
	case "lines":
		return readLines(r)
	case "csv":
		return readCSVColumn(r, importColumn, importHeader)
	case "paragraphs", "markdown":
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		if format == "markdown" {
			return markdown.Segments(b), nil
		}
		return segmenter.Paragraphs(string(b)), nil
	}
	return nil, domain.Validationf("unknown import format %q", format)
}

// warnSourceLanguage prints a warning when the imported text does not look
// like the project source language.
func warnSourceLanguage(cmd *cobra.Command, a *app.App, projectID int64, sources []string) {
	if len(sources) == 0 {
		return
	}
	p, err := a.Store.GetProject(cmd.Context(), projectID)
	if err != nil {
		return
	}
	sample := strings.Join(sources[:min(len(sources), 20)], "\n")
	if err := validator.New().Check(sample, p.SourceLang); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: source text does not look like %s: %v\n", p.SourceLang, err)
	}
}

var fileListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List the files of a project",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		projectID, err := parseID(args[0], "project")
		if err != nil {
			return err
		}
		files, err := a.Store.ListFiles(cmd.Context(), projectID)
		if err != nil {
			return fmt.Errorf("failed to list files: %w", err)
		}
		if asJSON {
			return printJSON(files)
		}
		if len(files) == 0 {
			fmt.Println("No files.")
			return nil
		}
		return printFiles(files)
	}),
}

func printFiles(files []*domain.File) error {
	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSEGMENTS\tTRANSLATED\tCONFIRMED\tDONE\tERROR")
	for _, f := range files {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d%%\t%s\n",
			f.ID, f.Name, f.Status, f.Progress.Total, f.Progress.Translated,
			f.Progress.Completed, f.Progress.Percentage, f.ErrorMessage)
	}
	return w.Flush()
}

var fileShowCmd = &cobra.Command{
	Use:   "show <file-id>",
	Short: "Show a file and its segments",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0], "file")
		if err != nil {
			return err
		}
		f, err := a.Store.GetFile(cmd.Context(), id)
		if err != nil {
			return err
		}
		segs, err := a.Store.ListSegments(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to list segments: %w", err)
		}
		if asJSON {
			return printJSON(struct {
				*domain.File
				Segments []*domain.Segment `json:"segments"`
			}{f, segs})
		}
		fmt.Printf("File %d: %s [%s, %d%%]\n\n", f.ID, f.Name, f.Status, f.Progress.Percentage)
		return printSegments(segs)
	}),
}

var fileTranslateCmd = &cobra.Command{
	Use:   "translate <file-id>",
	Short: "Queue translation of every pending segment of a file",
	Long: `Submit a background job translating the file. The job handle is printed;
the command then follows the job until it finishes. Interrupting the command
cancels the job; segments already sent to the provider still complete.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		by, err := actor()
		if err != nil {
			return err
		}
		id, err := parseID(args[0], "file")
		if err != nil {
			return err
		}
		handle, err := a.Jobs.SubmitFile(cmd.Context(), id, by)
		if err != nil {
			return err
		}
		return reportJob(cmd, a, handle)
	}),
}

var fileExportCmd = &cobra.Command{
	Use:   "export <file-id> <output.csv>",
	Short: "Write the segments of a file to CSV",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		id, err := parseID(args[0], "file")
		if err != nil {
			return err
		}
		segs, err := a.Store.ListSegments(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to list segments: %w", err)
		}
		if len(segs) == 0 {
			return domain.NotFound("file", id)
		}
		if err := writeSegmentsCSV(args[1], segs); err != nil {
			return err
		}
		fmt.Printf("Exported %d segments to %s\n", len(segs), args[1])
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(fileCmd)

	fileImportCmd.Flags().StringVar(&importName, "name", "", "File name (default: base name of path)")
	fileImportCmd.Flags().StringVarP(&importFormat, "format", "f", "lines", "Input format: lines, paragraphs, csv, markdown")
	fileImportCmd.Flags().IntVarP(&importColumn, "column", "l", 0, "CSV column to import (0-indexed)")
	fileImportCmd.Flags().BoolVar(&importHeader, "header", false, "Skip the first CSV row")
	fileImportCmd.Flags().IntVar(&importMaxChars, "max-chars", 0, "Split segments longer than this many characters (0 = no limit)")
	fileImportCmd.Flags().BoolVar(&importCheckLang, "check-language", false, "Warn when the text does not look like the project source language")

	fileCmd.AddCommand(fileImportCmd)
	fileCmd.AddCommand(fileListCmd)
	fileCmd.AddCommand(fileShowCmd)
	fileCmd.AddCommand(fileTranslateCmd)
	fileCmd.AddCommand(fileExportCmd)
}
