// Package importer loads rejection codes from CSV and sends them to the bulk
// upload tool in throttled batches.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"qadmin/internal/api"
	"qadmin/internal/log"
	"qadmin/internal/validate"

	"golang.org/x/time/rate"
)

const DefaultBatchSize = 100

// Uploader is the bulk upload endpoint; *api.RejectionCodes implements it.
type Uploader interface {
	BulkUpload(ctx context.Context, rows []api.BulkRow, testMode bool) (api.BulkUploadResult, error)
}

type Options struct {
	BatchSize int
	// Rate is batches per second; zero means unthrottled.
	Rate     float64
	TestMode bool
}

// Row is one parsed data row. Line is the 1-based CSV line number.
type Row struct {
	Line int
	api.BulkRow
}

// RowError is a row rejected locally or by the server.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

type Report struct {
	TestMode bool       `json:"test_mode"`
	Read     int        `json:"read"`
	Batches  int        `json:"batches"`
	Accepted int        `json:"accepted"`
	Created  int        `json:"created"`
	Rejected []RowError `json:"rejected,omitempty"`
}

// OK reports whether every row was accepted.
func (r Report) OK() bool { return len(r.Rejected) == 0 }

var errNoHeader = errors.New("csv: missing header row")

type columns struct {
	code, name, description int
}

func headerColumns(header []string) (columns, error) {
	cols := columns{code: -1, name: -1, description: -1}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch h {
		case "code":
			cols.code = i
		case "name":
			cols.name = i
		case "description":
			cols.description = i
		}
	}
	var missing []string
	if cols.code < 0 {
		missing = append(missing, "Code")
	}
	if cols.name < 0 {
		missing = append(missing, "Name")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("csv: missing column(s) %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// Parse reads the CSV and checks every row with the form rules. Rows that fail,
// or repeat an earlier code, are returned as RowErrors instead of Rows.
func Parse(r io.Reader) ([]Row, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errNoHeader
	}
	if err != nil {
		return nil, nil, err
	}
	cols, err := headerColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		rows     []Row
		rejected []RowError
		seen     = map[string]int{}
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := cr.FieldPos(0)

		row := Row{Line: line, BulkRow: api.BulkRow{
			Code:        strings.TrimSpace(cell(rec, cols.code)),
			Name:        strings.TrimSpace(cell(rec, cols.name)),
			Description: cell(rec, cols.description),
		}}
		if err := validate.Check(validate.RejectionCode{Code: row.Code, Name: row.Name, Description: row.Description}); err != nil {
			rejected = append(rejected, RowError{Line: line, Message: err.Error()})
			continue
		}
		if prev, dup := seen[row.Code]; dup {
			rejected = append(rejected, RowError{Line: line, Message: fmt.Sprintf("Code duplicates line %d", prev)})
			continue
		}
		seen[row.Code] = line
		rows = append(rows, row)
	}
	return rows, rejected, nil
}

// Run parses r and uploads the valid rows. Locally rejected rows are reported
// and never sent. A transport or server failure stops the run and returns the
// report so far.
func Run(ctx context.Context, up Uploader, r io.Reader, opts Options) (Report, error) {
	rep := Report{TestMode: opts.TestMode}

	rows, rejected, err := Parse(r)
	if err != nil {
		return rep, err
	}
	rep.Read = len(rows) + len(rejected)
	rep.Rejected = rejected

	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	lim := rate.NewLimiter(limit, 1)

	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		if err := lim.Wait(ctx); err != nil {
			return rep, err
		}
		payload := make([]api.BulkRow, 0, len(batch))
		for _, row := range batch {
			payload = append(payload, row.BulkRow)
		}
		log.Debugf("bulk upload batch %d: lines %d-%d test_mode=%v", rep.Batches+1, batch[0].Line, batch[len(batch)-1].Line, opts.TestMode)

		res, err := up.BulkUpload(ctx, payload, opts.TestMode)
		if err != nil {
			return rep, fmt.Errorf("batch %d: %s: %w", rep.Batches+1, api.ErrorMessage(err), err)
		}
		rep.Batches++
		rep.Accepted += res.Accepted
		rep.Created += res.Created
		for _, re := range res.Errors {
			line := 0
			if re.Row >= 0 && re.Row < len(batch) {
				line = batch[re.Row].Line
			}
			rep.Rejected = append(rep.Rejected, RowError{Line: line, Message: re.Message})
		}
	}
	return rep, nil
}
