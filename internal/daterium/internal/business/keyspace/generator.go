package keyspace

import (
	"context"
	"fmt"

	"gocatalog_crawler/internal/daterium/internal/models"
)

const DefaultDigitUpper = 100

// toolTerms is the curated hardware vocabulary swept by the tool-term strategy.
var toolTerms = []string{
	"taladro", "atornillador", "sierra", "calar", "radial", "amoladora",
	"lijadora", "fresadora", "router", "caladora", "ingletadora",
	"llave", "destornillador", "alicate", "martillo", "nivel",
	"escuadra", "flexometro", "metro", "regla",
	"broca", "punta", "disco", "hoja", "mecha", "corona",
	"vaso", "dado", "extension", "carraca",
	"tornillo", "tuerca", "arandela", "clavo", "taco", "anclaje",
	"remache", "esparrago", "tirafondo",
	"bosch", "makita", "dewalt", "milwaukee", "metabo", "festool",
	"stanley", "irwin", "wiha", "wera", "tivoly", "ruko",
}

var toolMaterials = []string{"metal", "madera", "hormigon", "plastico"}

// NameReader lists names already stored in the catalog, sorted.
type NameReader interface {
	BrandNames(ctx context.Context) ([]string, error)
	FamilyNames(ctx context.Context) ([]string, error)
}

type Generator struct {
	names      NameReader
	digitUpper int
}

func NewGenerator(names NameReader, digitUpper int) *Generator {
	if digitUpper <= 0 {
		digitUpper = DefaultDigitUpper
	}
	return &Generator{names: names, digitUpper: digitUpper}
}

// Keys returns the term sequence for strategy. Name based strategies depend on what
// earlier crawls stored and are empty on a fresh catalog.
func (g *Generator) Keys(ctx context.Context, strategy models.Strategy) (Sequence, error) {
	switch strategy {
	case models.LetterBigram:
		return NewNgrams(Alphabet, 1, 2), nil
	case models.LetterTrigram:
		return NewNgrams(Alphabet, 3, 3), nil
	case models.DigitRange:
		return NewDigits(g.digitUpper), nil
	case models.ToolTerm:
		return NewSlice(ToolTerms()), nil
	case models.BrandName:
		names, err := g.names.BrandNames(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load brand names: %w", err)
		}
		return NewSlice(names), nil
	case models.FamilyName:
		names, err := g.names.FamilyNames(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load family names: %w", err)
		}
		return NewSlice(names), nil
	}
	return nil, fmt.Errorf("unsupported strategy %q", strategy)
}

// ToolTerms expands every curated term with each material.
func ToolTerms() []string {
	out := make([]string, 0, len(toolTerms)*(len(toolMaterials)+1))
	for _, term := range toolTerms {
		out = append(out, term)
		for _, m := range toolMaterials {
			out = append(out, term+" "+m)
		}
	}
	return out
}
