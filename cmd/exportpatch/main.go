// Command exportpatch generates registration patch documents offline, from a
// JSON file of baseline/snapshot pairs. Used for support investigations and
// for file-based delivery to the TMS inbound drop.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"

	"enrol-sync/internal/result"
)

// inputRow is one entry of the -in file.
type inputRow struct {
	RegistrationID string    `json:"registrationId"`
	CourseID       int64     `json:"courseId"`
	UserID         int64     `json:"userId"`
	Baseline       fieldsDoc `json:"baseline"`
	Snapshot       fieldsDoc `json:"snapshot"`
}

// fieldsDoc carries the five tracked fields. Pointers distinguish absent
// fields (unset) from present-but-empty ones.
type fieldsDoc struct {
	Grade           *string `json:"grade"`
	Outcome         *string `json:"outcome"`
	LastActivity    *int64  `json:"lastActivity"`
	ProgressStatus  *string `json:"progressStatus"`
	ProgressPercent *int    `json:"progressPercent"`
}

func main() {
	var (
		inPath   = flag.String("in", "registrations.json", "input JSON file of baseline/snapshot pairs")
		outDir   = flag.String("out", "out", "output directory for patch files")
		compress = flag.Bool("compress", false, "write brotli-compressed .xml.br files")
	)
	flag.Parse()

	rows, err := readInput(*inPath)
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("mkdir %s: %v", *outDir, err)
	}

	written, skipped, err := writePatches(rows, *outDir, *compress)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %d patch files to %s (%d registrations unchanged)", written, *outDir, skipped)
}

func readInput(path string) ([]inputRow, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var rows []inputRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return rows, nil
}

func writePatches(rows []inputRow, outDir string, compress bool) (written, skipped int, err error) {
	for _, row := range rows {
		if strings.TrimSpace(row.RegistrationID) == "" {
			continue
		}

		base := toBaseline(row)
		snap := toSnapshot(row)

		patch, err := result.ExportPatch(snap, base)
		if err != nil {
			return written, skipped, fmt.Errorf("registration %s: %w", row.RegistrationID, err)
		}
		if patch == "" {
			skipped++
			continue
		}

		name := "registration-" + row.RegistrationID + ".xml"
		if compress {
			name += ".br"
		}
		p := filepath.Join(outDir, name)

		if err := writeFile(p, patch, compress); err != nil {
			return written, skipped, err
		}
		written++
	}
	return written, skipped, nil
}

func writeFile(path, patch string, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if !compress {
		_, err := f.WriteString(patch)
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}

	w := brotli.NewWriter(f)
	if _, err := w.Write([]byte(patch)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func toBaseline(row inputRow) *result.Baseline {
	b := &result.Baseline{
		RegistrationID: row.RegistrationID,
		CourseID:       row.CourseID,
		UserID:         row.UserID,
	}
	d := row.Baseline
	if d.Grade != nil {
		b.Grade = result.StringValue(*d.Grade)
	}
	if d.Outcome != nil {
		b.Outcome = result.StringValue(*d.Outcome)
	}
	if d.LastActivity != nil {
		b.LastActivity = result.EpochValue(*d.LastActivity)
	}
	if d.ProgressStatus != nil {
		b.ProgressStatus = result.StringValue(*d.ProgressStatus)
	}
	if d.ProgressPercent != nil {
		b.ProgressPercent = result.IntValue(*d.ProgressPercent)
	}
	return b
}

func toSnapshot(row inputRow) *result.Snapshot {
	s := &result.Snapshot{
		CourseID: row.CourseID,
		UserID:   row.UserID,
	}
	d := row.Snapshot
	if d.Grade != nil {
		s.Grade = result.StringValue(*d.Grade)
	}
	if d.Outcome != nil {
		s.Outcome = result.StringValue(*d.Outcome)
	}
	if d.LastActivity != nil {
		s.LastActivity = result.EpochValue(*d.LastActivity)
	}
	if d.ProgressStatus != nil {
		s.ProgressStatus = result.StringValue(*d.ProgressStatus)
	}
	if d.ProgressPercent != nil {
		s.ProgressPercent = result.IntValue(*d.ProgressPercent)
	}
	return s
}
