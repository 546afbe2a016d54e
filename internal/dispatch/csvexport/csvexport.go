// Package csvexport writes the merged investor list to a CSV file on disk.
package csvexport

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"investor-research/internal/common/errors"
	"investor-research/internal/models"
)

var header = []string{"name", "website", "profile_url", "ticket_min", "ticket_max", "tags", "warm", "provenance"}

type Exporter struct {
	dir string
}

func New(dir string) *Exporter {
	return &Exporter{dir: dir}
}

func (e *Exporter) Name() string {
	return "csv_export"
}

// Dispatch writes one CSV per run and records its path on the result.
func (e *Exporter) Dispatch(ctx context.Context, runID string, result *models.RunResult) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return errors.NewDispatchFailedError(errors.ErrCodeExportFailed, e.Name(), err)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("investors_%s.csv", runID))
	f, err := os.Create(path)
	if err != nil {
		return errors.NewDispatchFailedError(errors.ErrCodeExportFailed, e.Name(), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return errors.NewDispatchFailedError(errors.ErrCodeExportFailed, e.Name(), err)
	}

	for _, rec := range result.Investors {
		if err := w.Write(toRow(rec)); err != nil {
			return errors.NewDispatchFailedError(errors.ErrCodeExportFailed, e.Name(), err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewDispatchFailedError(errors.ErrCodeExportFailed, e.Name(), err)
	}

	result.CSVPath = path
	return nil
}

func toRow(rec models.CanonicalRecord) []string {
	var ticketMin, ticketMax string
	if rec.Ticket != nil {
		if rec.Ticket.Min != nil {
			ticketMin = strconv.FormatFloat(*rec.Ticket.Min, 'f', -1, 64)
		}
		if rec.Ticket.Max != nil {
			ticketMax = strconv.FormatFloat(*rec.Ticket.Max, 'f', -1, 64)
		}
	}

	provenance := make([]string, 0, len(rec.Provenance))
	for _, s := range rec.Provenance {
		provenance = append(provenance, string(s))
	}

	return []string{
		rec.Name,
		rec.Website,
		rec.ProfileURL,
		ticketMin,
		ticketMax,
		strings.Join(rec.Tags, ";"),
		strconv.FormatBool(rec.Warm),
		strings.Join(provenance, ";"),
	}
}
