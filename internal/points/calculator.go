package points

import (
	"math"
	"strconv"
	"strings"

	"github.com/majin-sajjad/danny-bot/internal/config"
	apperrors "github.com/majin-sajjad/danny-bot/pkg/errors"
)

// DefaultNiche is the fallback table for unrecognized niches. Submissions
// are never dropped over a table miss.
const DefaultNiche = "solar"

type nicheTable struct {
	base           map[string]float64
	bonusThreshold float64
	bonusIncrement float64
	bonusPoints    int
}

// Calculator maps (niche, deal type, deal value) to a point award. It holds
// only static tables and is safe for concurrent use.
type Calculator struct {
	niches map[string]nicheTable
}

func defaultTables() map[string]nicheTable {
	standard := func(std float64) map[string]float64 {
		return map[string]float64{
			"standard":       std,
			"self_generated": 2,
			"set":            1,
			"closed":         1,
		}
	}
	return map[string]nicheTable{
		"solar": {base: standard(1)},
		// Fiber standard deals accrue a fifth of a point each: five deals
		// round up to one point.
		"fiber": {base: standard(0.2)},
		"landscaping": {
			base:           standard(1),
			bonusThreshold: 50000,
			bonusIncrement: 50000,
			bonusPoints:    1,
		},
	}
}

// NewCalculator builds the calculator from the built-in tables, with any
// configured niches layered on top.
func NewCalculator(overrides []config.NicheConfig) *Calculator {
	tables := defaultTables()
	for _, nc := range overrides {
		name := strings.ToLower(strings.TrimSpace(nc.Name))
		if name == "" {
			continue
		}
		table := nicheTable{
			base:           make(map[string]float64, len(nc.Points)),
			bonusThreshold: nc.BonusThreshold,
			bonusIncrement: nc.BonusIncrement,
			bonusPoints:    nc.BonusPoints,
		}
		for dealType, value := range nc.Points {
			table.base[NormalizeDealType(dealType)] = value
		}
		if table.bonusThreshold > 0 && table.bonusIncrement <= 0 {
			table.bonusIncrement = table.bonusThreshold
		}
		tables[name] = table
	}
	return &Calculator{niches: tables}
}

// Calculate returns the point award for one deal. Unknown niches fall back
// to the default table and unknown deal types to the lowest standard value,
// so the only error is a malformed deal value.
func (c *Calculator) Calculate(niche, dealType string, dealValue float64) (int, error) {
	if dealValue < 0 {
		return 0, apperrors.New(apperrors.ErrValidation, "deal value cannot be negative", nil)
	}

	table, ok := c.niches[NormalizeNiche(niche)]
	if !ok {
		table = c.niches[DefaultNiche]
	}

	base, ok := table.base[NormalizeDealType(dealType)]
	if !ok {
		base = 1
	}

	bonus := 0
	if table.bonusThreshold > 0 && dealValue > table.bonusThreshold {
		excess := dealValue - table.bonusThreshold
		bonus = int(math.Floor(excess/table.bonusIncrement)) * table.bonusPoints
	}

	total := int(math.Round(base)) + bonus
	if total < 1 {
		total = 1
	}
	return total, nil
}

// NormalizeNiche lowercases and trims a niche name for table lookup.
func NormalizeNiche(niche string) string {
	return strings.ToLower(strings.TrimSpace(niche))
}

// NormalizeDealType folds synonyms onto the canonical deal type set.
func NormalizeDealType(dealType string) string {
	switch strings.ToLower(strings.TrimSpace(dealType)) {
	case "close", "closed":
		return "closed"
	case "self", "self-generated", "self_generated", "selfgen":
		return "self_generated"
	case "set", "appointment-set", "appointment_set":
		return "set"
	case "standard", "single", "multiple", "":
		return "standard"
	default:
		return strings.ToLower(strings.TrimSpace(dealType))
	}
}

// Categorize buckets a deal type for leaderboard breakdowns.
func Categorize(dealType string) string {
	if NormalizeDealType(dealType) == "self_generated" {
		return "self_generated"
	}
	return "standard"
}

// DisplayName returns the human-readable label for a deal type.
func DisplayName(dealType string) string {
	switch NormalizeDealType(dealType) {
	case "self_generated":
		return "Self-Generated"
	case "set":
		return "Appointment Set"
	case "closed":
		return "Close"
	case "standard":
		return "Standard Deal"
	default:
		cleaned := strings.ToLower(strings.TrimSpace(dealType))
		if cleaned == "" {
			return "Standard Deal"
		}
		return strings.ToUpper(cleaned[:1]) + cleaned[1:]
	}
}

// Describe summarizes a niche's point system for display surfaces.
func (c *Calculator) Describe(niche string) string {
	switch NormalizeNiche(niche) {
	case "fiber":
		return "5 deals = 1 point, 1 pt set that closes, 1 pt close, 2 pts self-gen"
	case "landscaping":
		return "1 pt set, 1 pt close, 1 pt per $50k above $50k"
	default:
		return "1 point per standard deal, 2 points self-generated"
	}
}

// ParseDealValue parses a user-supplied deal value, tolerating currency
// formatting. An empty string means no value was reported.
func ParseDealValue(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, nil
	}
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, apperrors.New(apperrors.ErrValidation, "invalid deal value: "+raw, err)
	}
	if value < 0 {
		return 0, apperrors.New(apperrors.ErrValidation, "deal value cannot be negative", nil)
	}
	return value, nil
}
