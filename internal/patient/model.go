package patient

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means no patient document exists for the identity. It is a
	// user-visible "no data found" state, not a fault.
	ErrNotFound   = errors.New("no patient data found")
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when a save carries a stale concurrency token.
	ErrConflict = errors.New("record was modified by another session")
)

type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer-not-to-say"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}

const dateLayout = "2006-01-02"

// PatientRecord is the persisted medical/demographic document, keyed 1:1 by
// the identity id. Height is centimeters, weight kilograms; both optional.
// Age and BMI are derived on display and never stored.
type PatientRecord struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Gender          Gender    `json:"gender"`
	DateOfBirth     time.Time `json:"dateOfBirth"`
	Height          *float64  `json:"height,omitempty"`
	Weight          *float64  `json:"weight,omitempty"`
	PersonalHistory string    `json:"personalHistory"`
	FamilyHistory   string    `json:"familyHistory"`
	Allergies       string    `json:"allergies"`
	Medications     string    `json:"medications"`
	Remarks         string    `json:"remarks"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Age returns full calendar years at now: birth year difference, minus one if
// the birthday has not yet occurred this year.
func (p *PatientRecord) Age(now time.Time) int {
	age := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		age--
	}
	return age
}

// BMI returns weight / (height/100)^2 rounded to one decimal place. The
// second return is false unless both height and weight are present.
func (p *PatientRecord) BMI() (float64, bool) {
	if p.Height == nil || p.Weight == nil {
		return 0, false
	}
	m := *p.Height / 100
	bmi := *p.Weight / (m * m)
	return math.Round(bmi*10) / 10, true
}

// Draft is the strongly-typed editable copy of a record as it exists in the
// edit form: every field is text, and absent optionals are empty strings so
// inputs stay controlled.
type Draft struct {
	Name            string `json:"name"`
	Gender          string `json:"gender"`
	DateOfBirth     string `json:"dateOfBirth"`
	Height          string `json:"height"`
	Weight          string `json:"weight"`
	PersonalHistory string `json:"personalHistory"`
	FamilyHistory   string `json:"familyHistory"`
	Allergies       string `json:"allergies"`
	Medications     string `json:"medications"`
	Remarks         string `json:"remarks"`
}

// DraftFrom converts a stored record into its editable form representation.
func DraftFrom(rec *PatientRecord) Draft {
	d := Draft{
		Name:            rec.Name,
		Gender:          string(rec.Gender),
		DateOfBirth:     rec.DateOfBirth.Format(dateLayout),
		PersonalHistory: rec.PersonalHistory,
		FamilyHistory:   rec.FamilyHistory,
		Allergies:       rec.Allergies,
		Medications:     rec.Medications,
		Remarks:         rec.Remarks,
	}
	if rec.Height != nil {
		d.Height = strconv.FormatFloat(*rec.Height, 'f', -1, 64)
	}
	if rec.Weight != nil {
		d.Weight = strconv.FormatFloat(*rec.Weight, 'f', -1, 64)
	}
	return d
}

// Record validates the draft and produces the complete record to persist.
// Name, gender and date of birth are required; height and weight are parsed
// from text, with the empty string mapping to absent — never to zero.
func (d Draft) Record() (*PatientRecord, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	gender := Gender(strings.TrimSpace(d.Gender))
	if !gender.Valid() {
		return nil, fmt.Errorf("%w: gender is required", ErrValidation)
	}
	if strings.TrimSpace(d.DateOfBirth) == "" {
		return nil, fmt.Errorf("%w: date of birth is required", ErrValidation)
	}
	dob, err := time.Parse(dateLayout, strings.TrimSpace(d.DateOfBirth))
	if err != nil {
		return nil, fmt.Errorf("%w: date of birth must be YYYY-MM-DD", ErrValidation)
	}

	height, err := parseOptionalPositive("height", d.Height)
	if err != nil {
		return nil, err
	}
	weight, err := parseOptionalPositive("weight", d.Weight)
	if err != nil {
		return nil, err
	}

	return &PatientRecord{
		Name:            name,
		Gender:          gender,
		DateOfBirth:     dob,
		Height:          height,
		Weight:          weight,
		PersonalHistory: d.PersonalHistory,
		FamilyHistory:   d.FamilyHistory,
		Allergies:       d.Allergies,
		Medications:     d.Medications,
		Remarks:         d.Remarks,
	}, nil
}

func parseOptionalPositive(field, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", ErrValidation, field)
	}
	if v <= 0 {
		return nil, fmt.Errorf("%w: %s must be positive", ErrValidation, field)
	}
	return &v, nil
}
