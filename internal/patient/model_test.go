package patient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAge_BirthdayBoundary(t *testing.T) {
	rec := &PatientRecord{DateOfBirth: time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)}

	dayBefore := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 23, rec.Age(dayBefore))

	onBirthday := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 24, rec.Age(onBirthday))
}

func TestAge_NonNegative(t *testing.T) {
	rec := &PatientRecord{DateOfBirth: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 0, rec.Age(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestBMI_BothPresent(t *testing.T) {
	height, weight := 165.0, 60.0
	rec := &PatientRecord{Height: &height, Weight: &weight}

	bmi, ok := rec.BMI()
	require.True(t, ok)
	// 60 / 1.65^2 = 22.038..., rounded to one decimal
	assert.Equal(t, 22.0, bmi)
}

func TestBMI_Rounding(t *testing.T) {
	height, weight := 170.0, 63.0
	rec := &PatientRecord{Height: &height, Weight: &weight}

	bmi, ok := rec.BMI()
	require.True(t, ok)
	assert.Equal(t, 21.8, bmi)
}

func TestBMI_AbsentWhenEitherMissing(t *testing.T) {
	height := 165.0
	_, ok := (&PatientRecord{Height: &height}).BMI()
	assert.False(t, ok)

	weight := 60.0
	_, ok = (&PatientRecord{Weight: &weight}).BMI()
	assert.False(t, ok)

	_, ok = (&PatientRecord{}).BMI()
	assert.False(t, ok)
}

func validDraft() Draft {
	return Draft{
		Name:        "Jane Doe",
		Gender:      "female",
		DateOfBirth: "1990-01-01",
		Height:      "165",
		Weight:      "60",
	}
}

func TestDraftRecord_Valid(t *testing.T) {
	rec, err := validDraft().Record()
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", rec.Name)
	assert.Equal(t, GenderFemale, rec.Gender)
	assert.Equal(t, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), rec.DateOfBirth)
	require.NotNil(t, rec.Height)
	assert.Equal(t, 165.0, *rec.Height)
	require.NotNil(t, rec.Weight)
	assert.Equal(t, 60.0, *rec.Weight)
}

func TestDraftRecord_EmptyStringMapsToAbsent(t *testing.T) {
	d := validDraft()
	d.Height = ""
	d.Weight = "  "

	rec, err := d.Record()
	require.NoError(t, err)
	assert.Nil(t, rec.Height)
	assert.Nil(t, rec.Weight)
}

func TestDraftRecord_RequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Draft)
	}{
		{"empty name", func(d *Draft) { d.Name = "" }},
		{"whitespace name", func(d *Draft) { d.Name = "   " }},
		{"empty gender", func(d *Draft) { d.Gender = "" }},
		{"unknown gender", func(d *Draft) { d.Gender = "unknown" }},
		{"empty date of birth", func(d *Draft) { d.DateOfBirth = "" }},
		{"malformed date of birth", func(d *Draft) { d.DateOfBirth = "01/01/1990" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.mutate(&d)
			_, err := d.Record()
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestDraftRecord_NumericValidation(t *testing.T) {
	d := validDraft()
	d.Height = "tall"
	_, err := d.Record()
	assert.ErrorIs(t, err, ErrValidation)

	d = validDraft()
	d.Weight = "-60"
	_, err = d.Record()
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDraftFrom_EmptyDefaultsForAbsentOptionals(t *testing.T) {
	rec := &PatientRecord{
		Name:        "Jane Doe",
		Gender:      GenderFemale,
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	d := DraftFrom(rec)
	assert.Equal(t, "Jane Doe", d.Name)
	assert.Equal(t, "1990-01-01", d.DateOfBirth)
	assert.Equal(t, "", d.Height)
	assert.Equal(t, "", d.Weight)
	assert.Equal(t, "", d.Remarks)
}

func TestDraftRoundTrip(t *testing.T) {
	rec, err := validDraft().Record()
	require.NoError(t, err)

	d := DraftFrom(rec)
	assert.Equal(t, validDraft(), d)
}
