package models

import (
	"fmt"
	"strings"
)

// Strategy selects how the search-term key space is generated. It is also the unit of resumption.
type Strategy string

const (
	LetterBigram  Strategy = "letter-bigram"
	LetterTrigram Strategy = "letter-trigram"
	DigitRange    Strategy = "digit-range"
	BrandName     Strategy = "brand-name"
	FamilyName    Strategy = "family-name"
	ToolTerm      Strategy = "tool-term"
)

var strategies = []Strategy{LetterBigram, LetterTrigram, DigitRange, BrandName, FamilyName, ToolTerm}

// DefaultLoop is the strategy rotation used by loop mode when none is given.
var DefaultLoop = []Strategy{BrandName, ToolTerm, LetterBigram}

func Strategies() []Strategy {
	out := make([]Strategy, len(strategies))
	copy(out, strategies)
	return out
}

func (s Strategy) String() string { return string(s) }

func ParseStrategy(raw string) (Strategy, error) {
	name := Strategy(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range strategies {
		if s == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q", raw)
}

// ParseStrategies parses a comma separated list, dropping duplicates and keeping order.
func ParseStrategies(raw string) ([]Strategy, error) {
	var out []Strategy
	seen := make(map[Strategy]struct{})
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := ParseStrategy(part)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no strategy given")
	}
	return out, nil
}
