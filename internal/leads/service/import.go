package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/phone"
)

// Archiver stores the raw import file before parsing. Archiving failures are
// logged but never block the import.
type Archiver interface {
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
}

// ImportResult summarizes one CSV import batch.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Known header names after normalization. Anything else lands in the lead's
// custom fields.
const (
	columnFirstName = "first_name"
	columnLastName  = "last_name"
	columnEmail     = "email"
	columnPhone     = "phone"
	columnState     = "state"
)

// maxImportErrors caps the error detail returned to the caller.
const maxImportErrors = 25

// Importer parses CSV lead files into the repository.
type Importer struct {
	svc      *Service
	archiver Archiver
	bucket   string
}

// NewImporter creates a CSV importer. The archiver may be nil when object
// storage is not configured.
func NewImporter(svc *Service, archiver Archiver, bucket string) *Importer {
	return &Importer{svc: svc, archiver: archiver, bucket: bucket}
}

// ImportCSV archives the raw file, parses it and inserts the valid rows in
// one batch. Rows with an unusable name or email are skipped; rows matching
// an existing campaign lead by fuzzy full name are skipped as duplicates.
func (i *Importer) ImportCSV(ctx context.Context, campaignID uuid.UUID, origin, fileName string, data []byte) (ImportResult, error) {
	if i.archiver != nil {
		if _, err := i.archiver.UploadFile(ctx, i.bucket, campaignID.String(), fileName, "text/csv", bytes.NewReader(data), int64(len(data))); err != nil {
			i.svc.log.Error("lead import archive failed", "campaignId", campaignID, "file", fileName, "error", err.Error())
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, apperr.Validation("import file is empty or not valid CSV")
	}
	columns := normalizeHeader(header)

	var result ImportResult
	var batch []repository.CreateParams
	seen := make(map[string]bool)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.addError(line, "malformed row")
			continue
		}

		params, reason := i.rowToParams(ctx, campaignID, origin, columns, record)
		if reason != "" {
			result.Skipped++
			result.addError(line, reason)
			continue
		}

		// Same file can repeat a person; only the first row lands.
		name := normalizeFullName(params.FirstName, params.LastName)
		if seen[name] {
			result.Skipped++
			result.addError(line, "duplicate lead")
			continue
		}
		seen[name] = true

		batch = append(batch, params)
	}

	imported, err := i.svc.repo.CreateBatch(ctx, batch)
	if err != nil {
		return ImportResult{}, err
	}
	result.Imported = imported

	i.svc.log.Info("lead import completed",
		"campaignId", campaignID, "origin", origin,
		"imported", result.Imported, "skipped", result.Skipped,
	)
	i.svc.bus.Publish(ctx, events.LeadsImported{
		BaseEvent:  events.NewBaseEvent(),
		CampaignID: campaignID,
		Origin:     origin,
		Imported:   result.Imported,
		Skipped:    result.Skipped,
	})

	return result, nil
}

// rowToParams validates one record; a non-empty reason means skip.
func (i *Importer) rowToParams(ctx context.Context, campaignID uuid.UUID, origin string, columns []string, record []string) (repository.CreateParams, string) {
	params := repository.CreateParams{
		CampaignID: campaignID,
		Origin:     origin,
	}

	for idx, column := range columns {
		if idx >= len(record) {
			break
		}
		value := strings.TrimSpace(record[idx])
		if value == "" {
			continue
		}

		switch column {
		case columnFirstName:
			params.FirstName = value
		case columnLastName:
			params.LastName = value
		case columnEmail:
			params.Email = strings.ToLower(value)
		case columnPhone:
			params.Phone = phone.NormalizeE164(value)
		case columnState:
			params.State = strings.ToUpper(value)
		default:
			if params.CustomFields == nil {
				params.CustomFields = make(map[string]string)
			}
			params.CustomFields[column] = value
		}
	}

	if params.FirstName == "" && params.LastName == "" {
		return repository.CreateParams{}, "missing name"
	}
	if params.Email == "" {
		return repository.CreateParams{}, "missing email"
	}
	if err := checkmail.ValidateFormat(params.Email); err != nil {
		return repository.CreateParams{}, "invalid email"
	}

	if _, found, err := i.svc.FindDuplicate(ctx, campaignID, params.FirstName, params.LastName); err != nil {
		return repository.CreateParams{}, "duplicate check failed"
	} else if found {
		return repository.CreateParams{}, "duplicate lead"
	}

	return params, ""
}

func (r *ImportResult) addError(line int, reason string) {
	if len(r.Errors) >= maxImportErrors {
		return
	}
	r.Errors = append(r.Errors, fmt.Sprintf("line %d: %s", line, reason))
}

func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	for i, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(name))
		normalized = strings.ReplaceAll(normalized, " ", "_")
		normalized = strings.ReplaceAll(normalized, "-", "_")
		columns[i] = normalized
	}
	return columns
}
