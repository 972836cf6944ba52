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
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

// readLines returns one segment per line of r.
func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// readCSVColumn returns the cells of one column, in row order. With header
// the first row is skipped.
func readCSVColumn(r io.Reader, column int, header bool) ([]string, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, domain.Validationf("CSV file is empty")
	}
	if header {
		records = records[1:]
	}
	out := make([]string, 0, len(records))
	for i, row := range records {
		if column < 0 || column >= len(row) {
			return nil, domain.Validationf("row %d has no column %d", i+1, column)
		}
		out = append(out, row[column])
	}
	return out, nil
}

// writeSegmentsCSV writes index, status, source and the best available
// target text of every segment.
func writeSegmentsCSV(path string, segs []*domain.Segment) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output CSV: %w", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write([]string{"index", "status", "source", "target"}); err != nil {
		return err
	}
	for _, seg := range segs {
		target := seg.Final()
		if target == "" {
			target = seg.Translation()
		}
		if err := w.Write([]string{strconv.Itoa(seg.Index), string(seg.Status), seg.SourceText, target}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush output CSV: %w", err)
	}
	return out.Close()
}
