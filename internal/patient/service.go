package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Fetch(ctx context.Context, identityID uuid.UUID) (*PatientRecord, error)
	// Save validates the draft and overwrites the stored document. The
	// repository is never touched when validation fails. expectedUpdatedAt
	// is the optional concurrency token; zero means last-writer-wins.
	Save(ctx context.Context, identityID uuid.UUID, d Draft, expectedUpdatedAt time.Time) (*PatientRecord, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) Fetch(ctx context.Context, identityID uuid.UUID) (*PatientRecord, error) {
	return s.repo.Fetch(ctx, identityID)
}

func (s *service) Save(ctx context.Context, identityID uuid.UUID, d Draft, expectedUpdatedAt time.Time) (*PatientRecord, error) {
	rec, err := d.Record()
	if err != nil {
		return nil, err
	}
	rec.ID = identityID

	// CreatedAt must survive the overwrite: carry it over from the stored
	// document when one exists.
	if existing, err := s.repo.Fetch(ctx, identityID); err == nil {
		rec.CreatedAt = existing.CreatedAt
	} else if err != ErrNotFound {
		return nil, err
	}

	if err := s.repo.Save(ctx, rec, expectedUpdatedAt); err != nil {
		return nil, err
	}
	s.logger.Info("patient record saved", zap.String("patient_id", identityID.String()))
	return rec, nil
}
