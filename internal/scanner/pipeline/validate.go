package pipeline

import (
	"math"
	"unicode/utf8"

	"github.com/biznesyordam/scanner-service/internal/models"
)

// Structural thresholds for a publishable card.
const (
	minTitleLen       = 20
	minDescriptionLen = 100
	minKeywords       = 3
	minSpecifications = 2

	checkWeight = 25.0
)

// ValidateCard scores a generated card against the four structural checks.
// Each passing check is worth 25 points; there is no partial credit.
func ValidateCard(card models.ProductCard) models.CardValidation {
	v := models.CardValidation{
		TitleOK:       utf8.RuneCountInString(card.TitleUz) >= minTitleLen,
		DescriptionOK: utf8.RuneCountInString(card.DescriptionUz) >= minDescriptionLen,
		KeywordsOK:    len(card.Keywords) >= minKeywords,
		SpecsOK:       len(card.Specifications) >= minSpecifications,
	}

	for _, ok := range []bool{v.TitleOK, v.DescriptionOK, v.KeywordsOK, v.SpecsOK} {
		if ok {
			v.OverallScore += checkWeight
		}
	}
	return v
}

// FieldCheck reports one text field's validation result. Length is set for
// text fields, Count for list fields.
type FieldCheck struct {
	Valid   bool   `json:"valid"`
	Length  int    `json:"length,omitempty"`
	Count   int    `json:"count,omitempty"`
	Message string `json:"message"`
}

// OverallResult is the aggregate of a text validation run.
type OverallResult struct {
	Score int    `json:"score"`
	Grade string `json:"grade"`
}

// TextValidation is the response of the lightweight text entry point.
type TextValidation struct {
	Title       FieldCheck    `json:"title"`
	Description FieldCheck    `json:"description"`
	Keywords    FieldCheck    `json:"keywords"`
	Overall     OverallResult `json:"overall"`
}

// ValidateText checks raw listing fields without running the full pipeline.
func ValidateText(title, description string, keywords []string) TextValidation {
	titleLen := utf8.RuneCountInString(title)
	descLen := utf8.RuneCountInString(description)

	v := TextValidation{
		Title: FieldCheck{
			Valid:   titleLen >= minTitleLen,
			Length:  titleLen,
			Message: "Sarlavha talabga javob beradi",
		},
		Description: FieldCheck{
			Valid:   descLen >= minDescriptionLen,
			Length:  descLen,
			Message: "Tavsif talabga javob beradi",
		},
		Keywords: FieldCheck{
			Valid:   len(keywords) >= minKeywords,
			Count:   len(keywords),
			Message: "Kalit so'zlar yetarli",
		},
	}

	if !v.Title.Valid {
		v.Title.Message = "Sarlavha juda qisqa (min 20 belgi)"
	}
	if !v.Description.Valid {
		v.Description.Message = "Tavsif juda qisqa (min 100 belgi)"
	}
	if !v.Keywords.Valid {
		v.Keywords.Message = "Kamida 3 ta kalit so'z kerak"
	}

	passed := 0
	for _, ok := range []bool{v.Title.Valid, v.Description.Valid, v.Keywords.Valid} {
		if ok {
			passed++
		}
	}
	v.Overall.Score = int(math.Round(float64(passed) / 3 * 100))
	v.Overall.Grade = gradeFor(v.Overall.Score)

	return v
}

func gradeFor(score int) string {
	switch {
	case score >= 80:
		return "A"
	case score >= 60:
		return "B"
	case score >= 40:
		return "C"
	default:
		return "F"
	}
}
