package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danbim/application-tracker/internal/domain"
)

type ListJobsOpts struct {
	Statuses   []domain.Status // empty = any
	ActiveOnly bool            // restrict to domain.ActiveStatuses
	Country    string          // "" or "all" = any
	Limit      int             // <= 0 = no limit
}

// jobColumns lists job_openings columns in scan order; rating columns come
// last, in criterion order.
func jobColumns() []string {
	cols := []string{
		"id", "title", "company", "description", "job_location", "country",
		"posting_url", "date_opened", "date_added", "wow", "track", "work_location",
		"status", "applied_at", "interviewing_at", "offer_at", "rejected_at",
		"ghosted_at", "dumped_at", "salary_min", "salary_max", "salary_currency",
		"created_at", "updated_at",
	}
	for _, ci := range domain.Criteria() {
		cols = append(cols, ci.Column)
	}
	return cols
}

func jobArgs(j *domain.JobOpening) []any {
	args := []any{
		j.ID, j.Title, j.Company, j.Description, j.JobLocation, j.Country,
		j.PostingURL, j.DateOpened, fmtTime(j.DateAdded), j.Wow, string(j.Track), string(j.WorkLocation),
		string(j.Status), nullTime(j.AppliedAt), nullTime(j.InterviewingAt), nullTime(j.OfferAt), nullTime(j.RejectedAt),
		nullTime(j.GhostedAt), nullTime(j.DumpedAt), nullInt(j.SalaryMin), nullInt(j.SalaryMax), j.SalaryCurrency,
		fmtTime(j.CreatedAt), fmtTime(j.UpdatedAt),
	}
	for _, ci := range domain.Criteria() {
		args = append(args, *ci.Field(&j.Ratings))
	}
	return args
}

func scanJob(rs rowScanner) (domain.JobOpening, error) {
	var (
		j                                      domain.JobOpening
		dateAdded, createdAt, updatedAt        string
		track, workLocation, status            string
		applied, interviewing, offer, rejected sql.NullString
		ghosted, dumped                        sql.NullString
		salaryMin, salaryMax                   sql.NullInt64
	)
	dest := []any{
		&j.ID, &j.Title, &j.Company, &j.Description, &j.JobLocation, &j.Country,
		&j.PostingURL, &j.DateOpened, &dateAdded, &j.Wow, &track, &workLocation,
		&status, &applied, &interviewing, &offer, &rejected,
		&ghosted, &dumped, &salaryMin, &salaryMax, &j.SalaryCurrency,
		&createdAt, &updatedAt,
	}
	for _, ci := range domain.Criteria() {
		dest = append(dest, ci.Field(&j.Ratings))
	}
	if err := rs.Scan(dest...); err != nil {
		return domain.JobOpening{}, err
	}

	j.DateAdded = parseTime(dateAdded)
	j.CreatedAt = parseTime(createdAt)
	j.UpdatedAt = parseTime(updatedAt)
	j.Track = domain.Track(track)
	j.WorkLocation = domain.WorkLocation(workLocation)
	j.Status = domain.Status(status)
	j.AppliedAt = timePtr(applied)
	j.InterviewingAt = timePtr(interviewing)
	j.OfferAt = timePtr(offer)
	j.RejectedAt = timePtr(rejected)
	j.GhostedAt = timePtr(ghosted)
	j.DumpedAt = timePtr(dumped)
	j.SalaryMin = intPtr(salaryMin)
	j.SalaryMax = intPtr(salaryMax)
	return j, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// ListJobOpenings returns matching jobs, most recently added first.
func ListJobOpenings(ctx context.Context, db *sql.DB, opts ListJobsOpts) ([]domain.JobOpening, error) {
	var where []string
	var args []any

	statuses := opts.Statuses
	if opts.ActiveOnly {
		if len(statuses) == 0 {
			statuses = domain.ActiveStatuses
		} else {
			var keep []domain.Status
			for _, s := range statuses {
				if s.Active() {
					keep = append(keep, s)
				}
			}
			if len(keep) == 0 {
				return []domain.JobOpening{}, nil
			}
			statuses = keep
		}
	}
	if len(statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(statuses))+")")
		for _, s := range statuses {
			args = append(args, string(s))
		}
	}
	if c := strings.ToUpper(strings.TrimSpace(opts.Country)); c != "" && c != "ALL" {
		where = append(where, "country = ?")
		args = append(args, c)
	}

	query := "SELECT " + strings.Join(jobColumns(), ", ") + "\nFROM job_openings\n"
	if len(where) > 0 {
		query += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	query += "ORDER BY date_added DESC, rowid DESC"
	if opts.Limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := db.QueryContext(ctx, query+";", args...)
	if err != nil {
		return nil, fmt.Errorf("list job openings: %w", err)
	}
	defer rows.Close()

	out := []domain.JobOpening{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job opening: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func GetJobOpening(ctx context.Context, db *sql.DB, id string) (domain.JobOpening, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+strings.Join(jobColumns(), ", ")+" FROM job_openings WHERE id = ? LIMIT 1;", id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.JobOpening{}, ErrNotFound
	}
	if err != nil {
		return domain.JobOpening{}, fmt.Errorf("get job opening %s: %w", id, err)
	}
	return j, nil
}

// InsertJobOpening assigns ID and timestamps, stores j and returns the stored copy.
func InsertJobOpening(ctx context.Context, db *sql.DB, j domain.JobOpening) (domain.JobOpening, error) {
	now := time.Now().UTC()
	j.ID = uuid.NewString()
	if j.DateAdded.IsZero() {
		j.DateAdded = now
	}
	if j.Status == "" {
		j.Status = domain.StatusNotApplied
	}
	j.CreatedAt = now
	j.UpdatedAt = now

	cols := jobColumns()
	_, err := db.ExecContext(ctx,
		"INSERT INTO job_openings ("+strings.Join(cols, ", ")+")\nVALUES ("+placeholders(len(cols))+");",
		jobArgs(&j)...)
	if err != nil {
		return domain.JobOpening{}, fmt.Errorf("insert job opening: %w", err)
	}
	return GetJobOpening(ctx, db, j.ID)
}

// UpdateJobOpening overwrites every column but id, date_added and created_at.
func UpdateJobOpening(ctx context.Context, db *sql.DB, j domain.JobOpening) (domain.JobOpening, error) {
	cur, err := GetJobOpening(ctx, db, j.ID)
	if err != nil {
		return domain.JobOpening{}, err
	}
	j.DateAdded = cur.DateAdded
	j.CreatedAt = cur.CreatedAt
	j.UpdatedAt = time.Now().UTC()

	cols := jobColumns()
	args := jobArgs(&j)
	var sets []string
	var setArgs []any
	for i, c := range cols {
		switch c {
		case "id", "date_added", "created_at":
			continue
		}
		sets = append(sets, c+" = ?")
		setArgs = append(setArgs, args[i])
	}
	setArgs = append(setArgs, j.ID)

	if _, err := db.ExecContext(ctx,
		"UPDATE job_openings SET "+strings.Join(sets, ", ")+" WHERE id = ?;", setArgs...); err != nil {
		return domain.JobOpening{}, fmt.Errorf("update job opening %s: %w", j.ID, err)
	}
	return GetJobOpening(ctx, db, j.ID)
}

// SetJobStatus moves a job to status s and stamps the matching timestamp.
func SetJobStatus(ctx context.Context, db *sql.DB, id string, s domain.Status, at time.Time) (domain.JobOpening, error) {
	j, err := GetJobOpening(ctx, db, id)
	if err != nil {
		return domain.JobOpening{}, err
	}
	j.SetStatus(s, at)
	return UpdateJobOpening(ctx, db, j)
}

func DeleteJobOpening(ctx context.Context, db *sql.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM job_openings WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete job opening %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Countries returns the distinct non-empty countries of all jobs, sorted.
func Countries(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
SELECT DISTINCT country
FROM job_openings
WHERE country != ''
ORDER BY country;`)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PurgeDumpedJobs deletes jobs that have been dumped for longer than age.
func PurgeDumpedJobs(ctx context.Context, db *sql.DB, age time.Duration) (deleted int64, err error) {
	cutoff := fmtTime(time.Now().Add(-age))
	res, err := db.ExecContext(ctx, `
DELETE FROM job_openings
WHERE status = 'dumped'
  AND dumped_at IS NOT NULL
  AND dumped_at < ?;
`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge dumped jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
