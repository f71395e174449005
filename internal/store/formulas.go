package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danbim/application-tracker/internal/domain"
)

// ErrDuplicateName is returned when a formula name is already taken.
var ErrDuplicateName = errors.New("duplicate name")

const formulaColumns = "id, name, weights, created_at, updated_at"

func scanFormula(rs rowScanner) (domain.ScoringFormula, error) {
	var f domain.ScoringFormula
	var weightsJSON, createdAt, updatedAt string
	if err := rs.Scan(&f.ID, &f.Name, &weightsJSON, &createdAt, &updatedAt); err != nil {
		return domain.ScoringFormula{}, err
	}
	f.Weights = domain.Weights{}
	if err := json.Unmarshal([]byte(weightsJSON), &f.Weights); err != nil {
		return domain.ScoringFormula{}, fmt.Errorf("formula %s weights: %w", f.ID, err)
	}
	f.CreatedAt = parseTime(createdAt)
	f.UpdatedAt = parseTime(updatedAt)
	return f, nil
}

func marshalWeights(w domain.Weights) (string, error) {
	if w == nil {
		w = domain.Weights{}
	}
	b, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("marshal weights: %w", err)
	}
	return string(b), nil
}

// ListFormulas returns all formulas ordered by name.
func ListFormulas(ctx context.Context, db *sql.DB) ([]domain.ScoringFormula, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+formulaColumns+` FROM scoring_formulas ORDER BY name, id;`)
	if err != nil {
		return nil, fmt.Errorf("list formulas: %w", err)
	}
	defer rows.Close()

	out := []domain.ScoringFormula{}
	for rows.Next() {
		f, err := scanFormula(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func GetFormula(ctx context.Context, db *sql.DB, id string) (domain.ScoringFormula, error) {
	return getFormulaBy(ctx, db, "id", id)
}

func GetFormulaByName(ctx context.Context, db *sql.DB, name string) (domain.ScoringFormula, error) {
	return getFormulaBy(ctx, db, "name", strings.TrimSpace(name))
}

func getFormulaBy(ctx context.Context, db *sql.DB, col, val string) (domain.ScoringFormula, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+formulaColumns+` FROM scoring_formulas WHERE `+col+` = ? LIMIT 1;`, val)
	f, err := scanFormula(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScoringFormula{}, ErrNotFound
	}
	if err != nil {
		return domain.ScoringFormula{}, fmt.Errorf("get formula %s=%q: %w", col, val, err)
	}
	return f, nil
}

func InsertFormula(ctx context.Context, db *sql.DB, f domain.ScoringFormula) (domain.ScoringFormula, error) {
	if _, err := GetFormulaByName(ctx, db, f.Name); err == nil {
		return domain.ScoringFormula{}, fmt.Errorf("formula %q: %w", f.Name, ErrDuplicateName)
	} else if !errors.Is(err, ErrNotFound) {
		return domain.ScoringFormula{}, err
	}

	weights, err := marshalWeights(f.Weights)
	if err != nil {
		return domain.ScoringFormula{}, err
	}
	now := fmtTime(time.Now())
	f.ID = uuid.NewString()
	if _, err := db.ExecContext(ctx, `
INSERT INTO scoring_formulas(id, name, weights, created_at, updated_at)
VALUES(?,?,?,?,?);`, f.ID, f.Name, weights, now, now); err != nil {
		return domain.ScoringFormula{}, fmt.Errorf("insert formula: %w", err)
	}
	return GetFormula(ctx, db, f.ID)
}

func UpdateFormula(ctx context.Context, db *sql.DB, f domain.ScoringFormula) (domain.ScoringFormula, error) {
	if other, err := GetFormulaByName(ctx, db, f.Name); err == nil && other.ID != f.ID {
		return domain.ScoringFormula{}, fmt.Errorf("formula %q: %w", f.Name, ErrDuplicateName)
	}

	weights, err := marshalWeights(f.Weights)
	if err != nil {
		return domain.ScoringFormula{}, err
	}
	res, err := db.ExecContext(ctx, `
UPDATE scoring_formulas
SET name = ?, weights = ?, updated_at = ?
WHERE id = ?;`, f.Name, weights, fmtTime(time.Now()), f.ID)
	if err != nil {
		return domain.ScoringFormula{}, fmt.Errorf("update formula %s: %w", f.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ScoringFormula{}, ErrNotFound
	}
	return GetFormula(ctx, db, f.ID)
}

// UpsertFormulaByName replaces the weights of the formula called f.Name, or
// creates it. created reports which happened.
func UpsertFormulaByName(ctx context.Context, db *sql.DB, f domain.ScoringFormula) (out domain.ScoringFormula, created bool, err error) {
	cur, err := GetFormulaByName(ctx, db, f.Name)
	switch {
	case errors.Is(err, ErrNotFound):
		out, err = InsertFormula(ctx, db, f)
		return out, err == nil, err
	case err != nil:
		return domain.ScoringFormula{}, false, err
	}
	cur.Weights = f.Weights
	out, err = UpdateFormula(ctx, db, cur)
	return out, false, err
}

func DeleteFormula(ctx context.Context, db *sql.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM scoring_formulas WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete formula %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
