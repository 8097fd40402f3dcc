// Package store persists rejection codes in SQLite for the reference backend.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"qadmin/internal/model"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("rejection code not found")
	ErrDuplicateCode = errors.New("code already exists")
)

// Sortable columns. Anything else is rejected by List.
var sortColumns = map[string]string{
	"code":        "code",
	"name":        "name",
	"description": "description",
}

// Filterable columns map to themselves; listed separately so sorting and
// filtering can diverge later.
var filterColumns = map[string]string{
	"code":        "code",
	"name":        "name",
	"description": "description",
}

func IsSortable(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

func IsFilterable(field string) bool {
	_, ok := filterColumns[field]
	return ok
}

// Filter restricts Field to values matching the regular expression Pattern.
type Filter struct {
	Field   string
	Pattern string
}

// ListParams selects one page. Offset/Limit are row based.
type ListParams struct {
	Offset  int
	Limit   int
	OrderBy string
	Desc    bool
	Filters []Filter
}

type Store struct {
	db     *sql.DB
	now    func() time.Time
	newKey func() string
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := openSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:     db,
		now:    func() time.Time { return time.Now().UTC() },
		newKey: uuid.NewString,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ValidatePattern reports whether pattern compiles as a filter expression.
func ValidatePattern(pattern string) error {
	_, err := compileCached(pattern)
	return err
}

// List returns the requested page and the total number of matching rows.
func (s *Store) List(ctx context.Context, p ListParams) ([]model.RejectionCode, int, error) {
	var where []string
	var args []any
	for _, f := range p.Filters {
		col, ok := filterColumns[f.Field]
		if !ok {
			return nil, 0, fmt.Errorf("unknown filter field %q", f.Field)
		}
		if err := ValidatePattern(f.Pattern); err != nil {
			return nil, 0, fmt.Errorf("filter %s: %w", f.Field, err)
		}
		where = append(where, col+" REGEXP ?")
		args = append(args, f.Pattern)
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rejection_codes`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderSQL := " ORDER BY created_at_unixms ASC, key ASC"
	if p.OrderBy != "" {
		col, ok := sortColumns[p.OrderBy]
		if !ok {
			return nil, 0, fmt.Errorf("unknown order field %q", p.OrderBy)
		}
		dir := "ASC"
		if p.Desc {
			dir = "DESC"
		}
		orderSQL = " ORDER BY " + col + " COLLATE NOCASE " + dir + ", key ASC"
	}

	limit := p.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	q := `SELECT key, code, name, description, properties_json, created_at_unixms, updated_at_unixms FROM rejection_codes` +
		whereSQL + orderSQL + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.RejectionCode{}
	for rows.Next() {
		rc, err := scanRejectionCode(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rc)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRejectionCode(sc scanner) (model.RejectionCode, error) {
	var rc model.RejectionCode
	var propsJSON string
	var createdMs, updatedMs int64
	if err := sc.Scan(&rc.Key, &rc.Code, &rc.Name, &rc.Description, &propsJSON, &createdMs, &updatedMs); err != nil {
		return model.RejectionCode{}, err
	}
	rc.Type = model.TypeRejectionCode
	if strings.TrimSpace(propsJSON) != "" {
		if err := json.Unmarshal([]byte(propsJSON), &rc.Properties); err != nil {
			return model.RejectionCode{}, fmt.Errorf("decode properties for %s: %w", rc.Key, err)
		}
	}
	created := time.UnixMilli(createdMs).UTC()
	updated := time.UnixMilli(updatedMs).UTC()
	rc.CreatedAt = &created
	rc.UpdatedAt = &updated
	return rc, nil
}

func (s *Store) Get(ctx context.Context, key string) (model.RejectionCode, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, code, name, description, properties_json, created_at_unixms, updated_at_unixms FROM rejection_codes WHERE key = ?`, key)
	rc, err := scanRejectionCode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RejectionCode{}, ErrNotFound
	}
	return rc, err
}

func propertiesJSON(p map[string]any) (string, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func mapWriteErr(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateCode
	}
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insert(ctx context.Context, ex execer, obj model.GenericObject) (string, error) {
	props, err := propertiesJSON(obj.Properties)
	if err != nil {
		return "", err
	}
	key := s.newKey()
	nowMs := s.now().UnixMilli()
	_, err = ex.ExecContext(ctx,
		`INSERT INTO rejection_codes(key, code, name, description, properties_json, created_at_unixms, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		key, obj.Code, obj.Name, obj.Description, props, nowMs, nowMs)
	if err != nil {
		return "", mapWriteErr(err)
	}
	return key, nil
}

func (s *Store) Create(ctx context.Context, obj model.GenericObject) (model.RejectionCode, error) {
	key, err := s.insert(ctx, s.db, obj)
	if err != nil {
		return model.RejectionCode{}, err
	}
	return s.Get(ctx, key)
}

func (s *Store) Update(ctx context.Context, key string, obj model.GenericObject) (model.RejectionCode, error) {
	props, err := propertiesJSON(obj.Properties)
	if err != nil {
		return model.RejectionCode{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE rejection_codes SET code = ?, name = ?, description = ?, properties_json = ?, updated_at_unixms = ? WHERE key = ?`,
		obj.Code, obj.Name, obj.Description, props, s.now().UnixMilli(), key)
	if err != nil {
		return model.RejectionCode{}, mapWriteErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.RejectionCode{}, ErrNotFound
	}
	return s.Get(ctx, key)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rejection_codes WHERE key = ?`, key)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkError reports the first failing row of a bulk insert (0-based).
type BulkError struct {
	Row int
	Err error
}

func (e *BulkError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }
func (e *BulkError) Unwrap() error { return e.Err }

// BulkInsert inserts all objects in one transaction; any failure rolls back everything.
func (s *Store) BulkInsert(ctx context.Context, objs []model.GenericObject) (int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	for i, obj := range objs {
		if _, err := s.insert(ctx, tx, obj); err != nil {
			return 0, &BulkError{Row: i, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(objs), nil
}

// CodeExists reports whether a record with code exists.
func (s *Store) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rejection_codes WHERE code = ?`, code).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
