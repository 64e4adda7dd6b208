package datasource

import (
	"strings"

	"github.com/yourusername/arbstream/internal/models"
)

var defaultAliases = map[string]string{
	"1":         models.LabelHomeWin,
	"home win":  models.LabelHomeWin,
	"thuis":     models.LabelHomeWin,
	"x":         models.LabelDraw,
	"draw":      models.LabelDraw,
	"tie":       models.LabelDraw,
	"gelijk":    models.LabelDraw,
	"2":         models.LabelAwayWin,
	"away win":  models.LabelAwayWin,
	"uit":       models.LabelAwayWin,
	"home":      models.LabelHome,
	"away":      models.LabelAway,
	"over 2.5":  models.LabelOver25,
	"o 2.5":     models.LabelOver25,
	"under 2.5": models.LabelUnder25,
	"u 2.5":     models.LabelUnder25,
}

// LabelNormalizer maps raw provider labels into the canonical vocabulary
type LabelNormalizer struct {
	aliases map[string]string
}

// NewLabelNormalizer creates a normalizer with the default aliases plus any extras.
// Extra keys are matched case-insensitively.
func NewLabelNormalizer(extra map[string]string) *LabelNormalizer {
	aliases := make(map[string]string, len(defaultAliases)+len(extra))
	for k, v := range defaultAliases {
		aliases[k] = v
	}
	for k, v := range extra {
		aliases[foldLabel(k)] = v
	}
	return &LabelNormalizer{aliases: aliases}
}

// Normalize returns the canonical label for raw and whether a mapping exists.
// Labels already in canonical form map to themselves.
func (n *LabelNormalizer) Normalize(raw string) (string, bool) {
	label, ok := n.aliases[foldLabel(raw)]
	return label, ok
}

// TwoWay maps a home or away alias onto the two-way moneyline labels
func (n *LabelNormalizer) TwoWay(raw string) (string, bool) {
	label, ok := n.Normalize(raw)
	if !ok {
		return "", false
	}
	switch label {
	case models.LabelHomeWin, models.LabelHome:
		return models.LabelHome, true
	case models.LabelAwayWin, models.LabelAway:
		return models.LabelAway, true
	}
	return "", false
}

func foldLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
