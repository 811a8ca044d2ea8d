package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	records   map[uuid.UUID]*PatientRecord
	saveCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[uuid.UUID]*PatientRecord{}}
}

func (f *fakeRepo) Fetch(ctx context.Context, id uuid.UUID) (*PatientRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRepo) Save(ctx context.Context, rec *PatientRecord, expectedUpdatedAt time.Time) error {
	f.saveCalls++
	if existing, ok := f.records[rec.ID]; ok && !expectedUpdatedAt.IsZero() &&
		!existing.UpdatedAt.Equal(expectedUpdatedAt) {
		return ErrConflict
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.UpdatedAt = time.Now()
	cp := *rec
	f.records[rec.ID] = &cp
	return nil
}

func TestSave_EmptyNameNeverTouchesRepository(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, zap.NewNop())

	d := validDraft()
	d.Name = ""
	_, err := svc.Save(context.Background(), uuid.New(), d, time.Time{})

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, repo.saveCalls)
}

func TestSave_FetchRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, zap.NewNop())
	id := uuid.New()

	saved, err := svc.Save(context.Background(), id, validDraft(), time.Time{})
	require.NoError(t, err)

	got, err := svc.Fetch(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, GenderFemale, got.Gender)
	assert.Equal(t, "1990-01-01", got.DateOfBirth.Format("2006-01-02"))
	require.NotNil(t, got.Height)
	assert.Equal(t, 165.0, *got.Height)
	require.NotNil(t, got.Weight)
	assert.Equal(t, 60.0, *got.Weight)
	assert.False(t, got.UpdatedAt.IsZero())
	assert.Equal(t, saved.UpdatedAt, got.UpdatedAt)
}

func TestSave_UpdatedAtAdvances(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, zap.NewNop())
	id := uuid.New()

	first, err := svc.Save(context.Background(), id, validDraft(), time.Time{})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	d := validDraft()
	d.Weight = "61"
	second, err := svc.Save(context.Background(), id, d, time.Time{})
	require.NoError(t, err)

	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	// createdAt is set once and survives the overwrite
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestSave_StaleTokenConflicts(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, zap.NewNop())
	id := uuid.New()

	first, err := svc.Save(context.Background(), id, validDraft(), time.Time{})
	require.NoError(t, err)

	// A second writer lands in between.
	time.Sleep(10 * time.Millisecond)
	_, err = svc.Save(context.Background(), id, validDraft(), time.Time{})
	require.NoError(t, err)

	d := validDraft()
	d.Remarks = "stale edit"
	_, err = svc.Save(context.Background(), id, d, first.UpdatedAt)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSave_ZeroTokenIsLastWriterWins(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, zap.NewNop())
	id := uuid.New()

	_, err := svc.Save(context.Background(), id, validDraft(), time.Time{})
	require.NoError(t, err)

	d := validDraft()
	d.Remarks = "second writer"
	_, err = svc.Save(context.Background(), id, d, time.Time{})
	require.NoError(t, err)

	got, err := svc.Fetch(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "second writer", got.Remarks)
}
