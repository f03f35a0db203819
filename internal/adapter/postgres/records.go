package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

const insertRecordSQL = `INSERT INTO rtd_db
	(id, rtd_code, rtd_time, rtd_loc, rtd_details, regioncode, latitude, longitude, visible)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO NOTHING`

const selectRecordColumns = `id::text, rtd_code, rtd_time, rtd_loc, rtd_details, regioncode, latitude, longitude, visible`

// RecordStore reads and writes the rtd_db table.
type RecordStore struct {
	db     DBTX
	logger *slog.Logger
}

func NewRecordStore(db DBTX, logger *slog.Logger) *RecordStore {
	return &RecordStore{db: db, logger: logger}
}

// InsertIfAbsent writes r unless a record with the same ID exists. It
// reports whether this call created the row.
func (s *RecordStore) InsertIfAbsent(ctx context.Context, r domain.RtdRecord) (bool, error) {
	details := r.Details
	if details == nil {
		details = []string{}
	}
	tag, err := s.db.Exec(ctx, insertRecordSQL,
		r.ID,
		int(r.HazardCode),
		r.OccurredAt.UTC(),
		r.LocationText,
		details,
		r.RegionCode,
		r.Latitude,
		r.Longitude,
		r.Visible,
	)
	if err != nil {
		return false, fmt.Errorf("insert record %s: %w", r.ID, err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug("record already stored", "id", r.ID, "hazard_code", int(r.HazardCode))
		return false, nil
	}
	return true, nil
}

// Filter narrows Query. Zero values do not constrain.
type Filter struct {
	HazardCodes []domain.HazardCode
	From        time.Time
	To          time.Time
	RegionCode  *int64
	VisibleOnly bool
	Limit       int
}

const defaultQueryLimit = 100

// buildQuery renders the SELECT for f with positional arguments.
func buildQuery(f Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if len(f.HazardCodes) > 0 {
		codes := make([]int32, len(f.HazardCodes))
		for i, c := range f.HazardCodes {
			codes[i] = int32(c)
		}
		where = append(where, "rtd_code = ANY("+arg(codes)+")")
	}
	if !f.From.IsZero() {
		where = append(where, "rtd_time >= "+arg(f.From.UTC()))
	}
	if !f.To.IsZero() {
		where = append(where, "rtd_time < "+arg(f.To.UTC()))
	}
	if f.RegionCode != nil {
		where = append(where, "regioncode = "+arg(*f.RegionCode))
	}
	if f.VisibleOnly {
		where = append(where, "visible")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectRecordColumns)
	b.WriteString(" FROM rtd_db")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY rtd_time DESC LIMIT ")
	b.WriteString(arg(limit))
	return b.String(), args
}

// Query returns records matching f, newest first.
func (s *RecordStore) Query(ctx context.Context, f Filter) ([]domain.RtdRecord, error) {
	sql, args := buildQuery(f)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []domain.RtdRecord
	for rows.Next() {
		var (
			r    domain.RtdRecord
			code int32
		)
		if err := rows.Scan(&r.ID, &code, &r.OccurredAt, &r.LocationText, &r.Details,
			&r.RegionCode, &r.Latitude, &r.Longitude, &r.Visible); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.HazardCode = domain.HazardCode(code)
		r.OccurredAt = r.OccurredAt.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// CountByHazard returns the stored record count per hazard code.
func (s *RecordStore) CountByHazard(ctx context.Context) (map[domain.HazardCode]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT rtd_code, COUNT(*) FROM rtd_db GROUP BY rtd_code`)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (hazardCount, error) {
		var hc hazardCount
		err := row.Scan(&hc.code, &hc.n)
		return hc, err
	})
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	out := make(map[domain.HazardCode]int64, len(counts))
	for _, hc := range counts {
		out[domain.HazardCode(hc.code)] = hc.n
	}
	return out, nil
}

type hazardCount struct {
	code int32
	n    int64
}
