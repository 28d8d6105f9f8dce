package service

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

type ITextService interface {
	Clean(input string) string
	RemoveTags(input string) string
	RepairEscapes(input string) string
	FixMojibake(input string) string
	CollapseSpaces(input string) string
}

var (
	tagRe     = regexp.MustCompile(`<[^>]*>`)
	escapeRe  = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)
	spaceRe   = regexp.MustCompile(`\s+`)
	mojibakes = []string{"Ã", "Â", "â€"}
)

type TextService struct{}

func NewTextService() *TextService {
	return &TextService{}
}

// Clean normalizes text coming from the catalog: markup, entities, literal
// \uXXXX escapes, UTF-8 read as Latin-1, NFC and whitespace.
func (ts *TextService) Clean(input string) string {
	if input == "" {
		return ""
	}
	cleaned := html.UnescapeString(tagRe.ReplaceAllString(input, " "))
	cleaned = ts.RepairEscapes(cleaned)
	cleaned = ts.FixMojibake(cleaned)
	cleaned = norm.NFC.String(cleaned)
	return ts.CollapseSpaces(cleaned)
}

// RemoveTags drops markup, leaving a space where each tag was. Entities that
// encode angle brackets stay text.
func (ts *TextService) RemoveTags(input string) string {
	return ts.CollapseSpaces(tagRe.ReplaceAllString(input, " "))
}

// RepairEscapes turns literal "\u00e1" sequences into the characters they name.
func (ts *TextService) RepairEscapes(input string) string {
	if !strings.Contains(input, `\u`) {
		return input
	}
	return escapeRe.ReplaceAllStringFunc(input, func(m string) string {
		cp, err := strconv.ParseUint(m[2:], 16, 32)
		if err != nil || !utf8.ValidRune(rune(cp)) {
			return m
		}
		return string(rune(cp))
	})
}

// FixMojibake reverses UTF-8 bytes that were decoded as Windows-1252.
// The input is returned untouched when the round trip does not produce valid UTF-8.
func (ts *TextService) FixMojibake(input string) string {
	suspicious := false
	for _, m := range mojibakes {
		if strings.Contains(input, m) {
			suspicious = true
			break
		}
	}
	if !suspicious {
		return input
	}
	raw, err := charmap.Windows1252.NewEncoder().String(input)
	if err != nil || !utf8.ValidString(raw) {
		return input
	}
	return raw
}

func (ts *TextService) CollapseSpaces(input string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(input, " "))
}
