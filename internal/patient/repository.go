package patient

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository reads and writes the single patient document per identity in the
// patients namespace. Save is a full-document overwrite; there is no partial
// update.
type Repository interface {
	Fetch(ctx context.Context, identityID uuid.UUID) (*PatientRecord, error)
	// Save overwrites the document and stamps UpdatedAt. When
	// expectedUpdatedAt is non-zero and the stored row is newer, the write
	// fails with ErrConflict; a zero value keeps last-writer-wins semantics.
	Save(ctx context.Context, rec *PatientRecord, expectedUpdatedAt time.Time) error
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Fetch(ctx context.Context, identityID uuid.UUID) (*PatientRecord, error) {
	query := `SELECT id, name, gender, date_of_birth, height, weight,
	       personal_history, family_history, allergies, medications, remarks,
	       created_at, updated_at
	  FROM patients WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, identityID)

	var rec PatientRecord
	var height, weight sql.NullFloat64
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Gender,
		&rec.DateOfBirth,
		&height,
		&weight,
		&rec.PersonalHistory,
		&rec.FamilyHistory,
		&rec.Allergies,
		&rec.Medications,
		&rec.Remarks,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch patient record: %w", err)
	}

	if height.Valid {
		rec.Height = &height.Float64
	}
	if weight.Valid {
		rec.Weight = &weight.Float64
	}
	return &rec, nil
}

func (r *postgresRepo) Save(ctx context.Context, rec *PatientRecord, expectedUpdatedAt time.Time) error {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	var height, weight sql.NullFloat64
	if rec.Height != nil {
		height = sql.NullFloat64{Float64: *rec.Height, Valid: true}
	}
	if rec.Weight != nil {
		weight = sql.NullFloat64{Float64: *rec.Weight, Valid: true}
	}

	if expectedUpdatedAt.IsZero() {
		query := `
		INSERT INTO patients (id, name, gender, date_of_birth, height, weight,
			personal_history, family_history, allergies, medications, remarks,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = $2, gender = $3, date_of_birth = $4, height = $5, weight = $6,
			personal_history = $7, family_history = $8, allergies = $9,
			medications = $10, remarks = $11,
			updated_at = $13
	`
		_, err := r.db.ExecContext(ctx, query,
			rec.ID, rec.Name, rec.Gender, rec.DateOfBirth, height, weight,
			rec.PersonalHistory, rec.FamilyHistory, rec.Allergies, rec.Medications,
			rec.Remarks, rec.CreatedAt, rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to save patient record: %w", err)
		}
		return nil
	}

	// Optimistic path: the overwrite only lands if the stored row still
	// carries the updated_at the caller last saw.
	query := `
		INSERT INTO patients (id, name, gender, date_of_birth, height, weight,
			personal_history, family_history, allergies, medications, remarks,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = $2, gender = $3, date_of_birth = $4, height = $5, weight = $6,
			personal_history = $7, family_history = $8, allergies = $9,
			medications = $10, remarks = $11,
			updated_at = $13
		WHERE patients.updated_at = $14
	`
	res, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Gender, rec.DateOfBirth, height, weight,
		rec.PersonalHistory, rec.FamilyHistory, rec.Allergies, rec.Medications,
		rec.Remarks, rec.CreatedAt, rec.UpdatedAt, expectedUpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save patient record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save patient record: %w", err)
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}
