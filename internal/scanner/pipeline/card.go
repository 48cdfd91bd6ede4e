package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/biznesyordam/scanner-service/internal/models"
)

// CardWriter asks the external AI service for listing copy. Implementations
// may fail; the generator absorbs every failure with the template fallback.
type CardWriter interface {
	GenerateCard(ctx context.Context, req CardRequest) (*models.CardPatch, error)
}

// CardRequest carries the product identity the card is written for.
type CardRequest struct {
	Name         string  `json:"name"`
	Brand        string  `json:"brand"`
	Category     string  `json:"category"`
	Description  string  `json:"description"`
	OptimalPrice float64 `json:"price"`
	Marketplace  string  `json:"marketplace"`
}

// SEO scores: the deterministic template earns 75; a successful AI card
// earns its own score, or 85 when the service omits one.
const (
	templateSEOScore  = 75.0
	aiDefaultSEOScore = 85.0
)

var (
	templateBulletsUz = []string{"Yuqori sifat", "Tez yetkazib berish", "Kafolat mavjud"}
	templateBulletsRu = []string{"Высокое качество", "Быстрая доставка", "Гарантия качества"}
)

// CardGenerator builds marketplace listings. It never fails: when the AI
// service is unreachable or returns garbage, the deterministic template
// built in step one is the final result (fallback-to-template policy; the
// recognition adapter deliberately does the opposite).
type CardGenerator struct {
	writer CardWriter
	logger *slog.Logger
}

func NewCardGenerator(writer CardWriter, logger *slog.Logger) *CardGenerator {
	return &CardGenerator{
		writer: writer,
		logger: logger.With("component", "card_generator"),
	}
}

// Generate returns a complete bilingual card for the product.
func (g *CardGenerator) Generate(ctx context.Context, req CardRequest) models.ProductCard {
	card := templateCard(req)

	if g.writer == nil {
		return card
	}

	patch, err := g.writer.GenerateCard(ctx, req)
	if err != nil {
		g.logger.Warn("card service unavailable, using template",
			"error", err, "product", req.Name)
		return card
	}

	applyPatch(&card, patch)
	return card
}

// templateCard builds the deterministic fallback listing.
func templateCard(req CardRequest) models.ProductCard {
	name := strings.TrimSpace(req.Name)
	desc := strings.TrimSpace(req.Description)

	descUz := fmt.Sprintf("%s brendining %s mahsuloti. Optimal narx: %.0f so'm. Tez yetkazib berish va rasmiy kafolat bilan xarid qiling.",
		req.Brand, name, req.OptimalPrice)
	descRu := fmt.Sprintf("Товар %s от бренда %s. Оптимальная цена: %.0f сум. Быстрая доставка и официальная гарантия.",
		name, req.Brand, req.OptimalPrice)
	if desc != "" {
		descUz = desc + " " + descUz
		descRu = desc + " " + descRu
	}

	return models.ProductCard{
		TitleUz:        fmt.Sprintf("%s %s - sifatli va ishonchli", req.Brand, name),
		TitleRu:        fmt.Sprintf("%s %s - качество и надёжность", req.Brand, name),
		DescriptionUz:  descUz,
		DescriptionRu:  descRu,
		BulletPointsUz: append([]string(nil), templateBulletsUz...),
		BulletPointsRu: append([]string(nil), templateBulletsRu...),
		Keywords:       buildKeywords(req.Brand, req.Category, name),
		Specifications: map[string]string{
			"Brend":      req.Brand,
			"Kategoriya": req.Category,
		},
		SEOScore: templateSEOScore,
	}
}

// applyPatch overwrites template fields with whatever the AI service
// returned. Fields the service omitted keep their template values.
func applyPatch(card *models.ProductCard, patch *models.CardPatch) {
	if patch == nil {
		card.SEOScore = aiDefaultSEOScore
		return
	}
	if patch.TitleUz != nil {
		card.TitleUz = *patch.TitleUz
	}
	if patch.TitleRu != nil {
		card.TitleRu = *patch.TitleRu
	}
	if patch.DescriptionUz != nil {
		card.DescriptionUz = *patch.DescriptionUz
	}
	if patch.DescriptionRu != nil {
		card.DescriptionRu = *patch.DescriptionRu
	}
	if len(patch.BulletPointsUz) > 0 {
		card.BulletPointsUz = patch.BulletPointsUz
	}
	if len(patch.BulletPointsRu) > 0 {
		card.BulletPointsRu = patch.BulletPointsRu
	}
	if len(patch.Keywords) > 0 {
		card.Keywords = patch.Keywords
	}
	if len(patch.Specifications) > 0 {
		card.Specifications = patch.Specifications
	}
	if patch.SEOScore != nil {
		card.SEOScore = *patch.SEOScore
	} else {
		card.SEOScore = aiDefaultSEOScore
	}
}

// buildKeywords derives the keyword list from brand, category and the first
// word of the product name, deduplicated and with empty entries dropped.
func buildKeywords(brand, category, name string) []string {
	candidates := []string{brand, category}
	if fields := strings.Fields(name); len(fields) > 0 {
		candidates = append(candidates, fields[0])
	}

	seen := make(map[string]bool, len(candidates))
	keywords := make([]string, 0, len(candidates))
	for _, c := range candidates {
		kw := strings.ToLower(strings.TrimSpace(c))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}
	return keywords
}
