package recognition

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/biznesyordam/scanner-service/internal/models"
)

// Defaults applied when the recognizer omits a field. Downstream stages rely
// on every field being populated.
const (
	defaultProductName    = "Aniqlanmagan mahsulot"
	defaultBrand          = "Unknown"
	defaultCategory       = "electronics"
	defaultConfidence     = 80.0
	defaultSuggestedPrice = 100000.0
)

// NormalizeProduct converts a loosely-typed recognition envelope into a
// fully-populated RecognizedProduct. The backend is inconsistent about where
// it nests the product and what it calls the fields, so every known variant
// is tried in order.
func NormalizeProduct(envelope map[string]any) *models.RecognizedProduct {
	body := nestedSection(envelope, "product_info", "data", "product")

	product := &models.RecognizedProduct{
		Name:           defaultProductName,
		Brand:          defaultBrand,
		Category:       defaultCategory,
		Specifications: []string{},
		Confidence:     defaultConfidence,
		SuggestedPrice: defaultSuggestedPrice,
	}

	if name, ok := pickString(body, "name", "product_name", "title"); ok {
		product.Name = stripHTML(name)
	}
	if brand, ok := pickString(body, "brand", "manufacturer"); ok {
		product.Brand = brand
	}
	if category, ok := pickString(body, "category", "product_category"); ok {
		product.Category = strings.ToLower(category)
	}
	if description, ok := pickString(body, "description", "summary"); ok {
		product.Description = stripHTML(description)
	}
	if specs := pickStrings(body, "specifications", "features", "specs"); len(specs) > 0 {
		product.Specifications = specs
	}
	if confidence, ok := pickFloat(body, "confidence"); ok {
		product.Confidence = confidence
	}
	if price, ok := pickFloat(body, "suggestedPrice", "suggested_price", "price"); ok {
		product.SuggestedPrice = price
	}

	return product
}

// NormalizeCardPatch converts a loosely-typed card-generation envelope into
// a patch of only the fields the backend actually returned.
func NormalizeCardPatch(envelope map[string]any) *models.CardPatch {
	body := nestedSection(envelope, "card", "product_card", "data")

	patch := &models.CardPatch{}
	if v, ok := pickString(body, "title_uz"); ok {
		v = stripHTML(v)
		patch.TitleUz = &v
	}
	if v, ok := pickString(body, "title_ru"); ok {
		v = stripHTML(v)
		patch.TitleRu = &v
	}
	if v, ok := pickString(body, "description_uz"); ok {
		v = stripHTML(v)
		patch.DescriptionUz = &v
	}
	if v, ok := pickString(body, "description_ru"); ok {
		v = stripHTML(v)
		patch.DescriptionRu = &v
	}
	patch.BulletPointsUz = pickStrings(body, "bullet_points_uz")
	patch.BulletPointsRu = pickStrings(body, "bullet_points_ru")
	patch.Keywords = pickStrings(body, "keywords")
	patch.Specifications = pickStringMap(body, "specifications")
	if v, ok := pickFloat(body, "seo_score", "seoScore"); ok {
		patch.SEOScore = &v
	}

	return patch
}

// nestedSection returns the first map found under the given keys, or the
// envelope itself when the backend replied flat.
func nestedSection(envelope map[string]any, keys ...string) map[string]any {
	for _, key := range keys {
		if section, ok := envelope[key].(map[string]any); ok {
			return section
		}
	}
	return envelope
}

func pickString(m map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func pickFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		}
	}
	return 0, false
}

func pickStrings(m map[string]any, keys ...string) []string {
	for _, key := range keys {
		items, ok := m[key].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func pickStringMap(m map[string]any, keys ...string) map[string]string {
	for _, key := range keys {
		raw, ok := m[key].(map[string]any)
		if !ok {
			continue
		}
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				out[k] = s
			} else {
				out[k] = fmt.Sprint(v)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// stripHTML flattens markup the AI occasionally returns inside text fields.
func stripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
