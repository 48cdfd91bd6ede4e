package pipeline

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/biznesyordam/scanner-service/internal/models"
)

// ikpuPrefixes maps a product category to its 4-digit IKPU classification
// prefix. Unknown categories fall back to the electronics prefix.
var ikpuPrefixes = map[string]string{
	"electronics": "8471",
	"clothing":    "6109",
	"beauty":      "3304",
	"home":        "9403",
	"food":        "2106",
	"toys":        "9503",
	"sports":      "9506",
	"auto":        "8708",
}

const defaultIKPUPrefix = "8471"

// AssignCodes produces the IKPU classification code and a SKU for a product.
// When autoIKPU is false the IKPU code is left empty but the category is
// still reported. SKU uniqueness is best effort: the base-36 timestamp
// component makes collisions within one process overwhelmingly unlikely,
// nothing stronger is promised.
func AssignCodes(category, brand string, autoIKPU bool) (models.IKPU, string) {
	ikpu := models.IKPU{Category: category}
	if autoIKPU {
		prefix, ok := ikpuPrefixes[category]
		if !ok {
			prefix = defaultIKPUPrefix
		}
		ikpu.Code = fmt.Sprintf("%s3000%04d", prefix, rand.Intn(10000))
	}

	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	sku := fmt.Sprintf("%s-%s-%s", skuPart(brand), skuPart(category), ts)

	return ikpu, sku
}

// skuPart uppercases the first three letters of s for use in a SKU segment.
func skuPart(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return strings.ToUpper(string(runes))
}
