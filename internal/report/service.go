package report

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/signintech/gopdf"
	"go.uber.org/zap"

	"medical-portal/internal/auth"
	"medical-portal/internal/patient"
)

// Service renders a patient record as a downloadable PDF summary.
type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// Common DejaVuSans locations across distros.
var fontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// RenderProfile produces the PDF for one patient record.
func (s *Service) RenderProfile(ident auth.Identity, rec *patient.PatientRecord) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load PDF font (is ttf-dejavu installed?): %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Patient Profile")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	now := time.Now()
	lines := []string{
		fmt.Sprintf("Generated: %s", now.Format("2006-01-02 15:04")),
		fmt.Sprintf("Email: %s", ident.Email),
		fmt.Sprintf("Name: %s", rec.Name),
		fmt.Sprintf("Gender: %s", rec.Gender),
		fmt.Sprintf("Date of birth: %s (age %d)", rec.DateOfBirth.Format("2006-01-02"), rec.Age(now)),
		fmt.Sprintf("Height: %s", optionalUnit(rec.Height, "cm")),
		fmt.Sprintf("Weight: %s", optionalUnit(rec.Weight, "kg")),
	}
	if bmi, ok := rec.BMI(); ok {
		lines = append(lines, fmt.Sprintf("BMI: %.1f", bmi))
	}
	for _, line := range lines {
		pdf.Cell(nil, line)
		pdf.Br(15)
	}
	pdf.Br(10)

	sections := []struct {
		title string
		body  string
	}{
		{"Personal medical history", rec.PersonalHistory},
		{"Family medical history", rec.FamilyHistory},
		{"Allergies", rec.Allergies},
		{"Current medications", rec.Medications},
		{"Remarks", rec.Remarks},
	}
	for _, sec := range sections {
		if sec.body == "" {
			continue
		}
		if err := pdf.SetFont("DejaVu", "", 13); err != nil {
			return nil, err
		}
		pdf.Cell(nil, sec.title)
		pdf.Br(15)
		if err := pdf.SetFont("DejaVu", "", 11); err != nil {
			return nil, err
		}
		wrapped, _ := pdf.SplitText(sec.body, 500)
		for _, l := range wrapped {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
		pdf.Br(8)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func optionalUnit(v *float64, unit string) string {
	if v == nil {
		return "not provided"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + " " + unit
}
