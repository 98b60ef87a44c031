package academics

import (
	"sort"

	"github.com/biniyam0960/Student-information-System/internal/models"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
)

// Letter grades.
const (
	LetterA = "A"
	LetterB = "B"
	LetterC = "C"
	LetterD = "D"
	LetterF = "F"
)

var gradePoints = map[string]float64{
	LetterA: 4,
	LetterB: 3,
	LetterC: 2,
	LetterD: 1,
	LetterF: 0,
}

// ValidateScore rejects negative scores.
func ValidateScore(score float64) error {
	if score < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "score must not be negative")
	}
	return nil
}

// SectionPercent is the weighted mean of score/max_score ratios, scaled to 100.
// It returns nil for no records or a zero weight sum. Results above 100 are kept.
func SectionPercent(records []models.GradeRecord) *float64 {
	if len(records) == 0 {
		return nil
	}
	var weighted, weights float64
	for _, r := range records {
		ratio := 0.0
		if r.MaxScore != 0 {
			ratio = r.Score / r.MaxScore
		}
		weighted += ratio * r.Weight
		weights += r.Weight
	}
	if weights == 0 {
		return nil
	}
	percent := weighted / weights * 100
	return &percent
}

// LetterFromPercent maps a percent onto A/B/C/D/F; nil stays nil.
func LetterFromPercent(percent *float64) *string {
	if percent == nil {
		return nil
	}
	var letter string
	switch p := *percent; {
	case p >= 90:
		letter = LetterA
	case p >= 80:
		letter = LetterB
	case p >= 70:
		letter = LetterC
	case p >= 60:
		letter = LetterD
	default:
		letter = LetterF
	}
	return &letter
}

// GradePoints returns the 4-point value of a letter.
func GradePoints(letter string) (float64, bool) {
	p, ok := gradePoints[letter]
	return p, ok
}

// SectionFinals groups records by section and derives percent and letter for each,
// ordered by section id.
func SectionFinals(records []models.GradeRecord) []models.SectionFinal {
	bySection := make(map[int64][]models.GradeRecord)
	for _, r := range records {
		bySection[r.SectionID] = append(bySection[r.SectionID], r)
	}
	ids := make([]int64, 0, len(bySection))
	for id := range bySection {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	finals := make([]models.SectionFinal, 0, len(ids))
	for _, id := range ids {
		percent := SectionPercent(bySection[id])
		finals = append(finals, models.SectionFinal{
			SectionID: id,
			Percent:   percent,
			Letter:    LetterFromPercent(percent),
		})
	}
	return finals
}

// ComputeGPA averages grade points over sections with a letter. Course credits are ignored.
func ComputeGPA(studentID int64, records []models.GradeRecord) models.GPAReport {
	finals := SectionFinals(records)
	var total float64
	var counted int
	for _, f := range finals {
		if f.Letter == nil {
			continue
		}
		if p, ok := GradePoints(*f.Letter); ok {
			total += p
			counted++
		}
	}
	report := models.GPAReport{StudentID: studentID, Finals: finals}
	if counted > 0 {
		gpa := total / float64(counted)
		report.GPA = &gpa
	}
	return report
}
