package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"gocatalog_crawler/internal/daterium/internal/business/gtin"
	"gocatalog_crawler/internal/daterium/internal/models"
)

// candidate is a validated code and the reference block it came from (-1 for entry level).
type candidate struct {
	code gtin.Code
	ref  int
}

var (
	packQtyRe = regexp.MustCompile(`(?:pack|blister)\s*(\d+)|(\d+)\s*(?:pack|blister)`)
	boxQtyRe  = regexp.MustCompile(`(?:caja|box)\s*(\d+)|(\d+)\s*(?:caja|box)`)
)

// extractCodes scans every reference block. Explicit code fields are pooled first,
// then digit runs of loose reference fields; name and description text are only
// scanned when the references yield nothing valid.
func (e *Extractor) extractCodes(node *xmlquery.Node, entry *models.CatalogEntry) {
	refs := descendants(node, "referencia")

	var pool []candidate
	for i, ref := range refs {
		pool = append(pool, explicitCandidates(ref, i)...)
	}
	pool = append(pool, explicitCandidates(node, -1)...)
	for i, ref := range refs {
		for _, tag := range looseCodeTags {
			for _, field := range zeroOrMore(ref, tag) {
				pool = append(pool, looseCandidates(field.InnerText(), i)...)
			}
		}
	}
	if len(pool) == 0 {
		pool = append(pool, looseCandidates(entry.Name, -1)...)
		if entry.Description != nil {
			pool = append(pool, looseCandidates(*entry.Description, -1)...)
		}
	}

	entry.References = make([]models.Reference, 0, len(refs))
	for i, ref := range refs {
		entry.References = append(entry.References, buildReference(ref, i, pool))
	}

	winner, found := prefer(pool)
	winnerRef := -1
	if found {
		code := winner.code.String()
		entry.Code = &code
		winnerRef = winner.ref
	}
	entry.Codes = codeEntries(pool, entry.References, entry.Code)

	if winnerRef >= 0 {
		entry.Price = entry.References[winnerRef].Price
		entry.SKU = entry.References[winnerRef].SKU
	}
	for _, r := range entry.References {
		if entry.Price == nil && r.Price != nil {
			entry.Price = r.Price
		}
		if entry.SKU == nil && r.SKU != nil {
			entry.SKU = r.SKU
		}
	}
}

func explicitCandidates(n *xmlquery.Node, ref int) []candidate {
	var out []candidate
	for _, tag := range explicitCodeTags {
		for _, field := range zeroOrMore(n, tag) {
			if c, ok := explicitCode(field.InnerText()); ok {
				out = append(out, candidate{code: c, ref: ref})
			}
		}
	}
	return out
}

// explicitCode validates a dedicated code field. A 12-digit value that is not a
// valid UPC-A is taken as an EAN-13 body missing its check digit.
func explicitCode(raw string) (gtin.Code, bool) {
	if c, ok := gtin.Validate(raw); ok {
		return c, true
	}
	d := gtin.Digits(raw)
	if len(d) != 12 {
		return gtin.Code{}, false
	}
	c, err := gtin.Complete(d)
	if err != nil {
		return gtin.Code{}, false
	}
	return c, true
}

func looseCandidates(text string, ref int) []candidate {
	var out []candidate
	for _, run := range digitRunRe.FindAllString(text, -1) {
		switch len(run) {
		case 8, 12, 13, 14:
		default:
			continue
		}
		if c, ok := gtin.Validate(run); ok {
			out = append(out, candidate{code: c, ref: ref})
		}
	}
	return out
}

func prefer(pool []candidate) (candidate, bool) {
	codes := make([]gtin.Code, len(pool))
	for i, c := range pool {
		codes[i] = c.code
	}
	best, ok := gtin.Prefer(codes)
	if !ok {
		return candidate{}, false
	}
	for _, c := range pool {
		if c.code == best {
			return c, true
		}
	}
	return candidate{}, false
}

func buildReference(ref *xmlquery.Node, idx int, pool []candidate) models.Reference {
	r := models.Reference{}
	for _, tag := range skuTags {
		if v, ok := optionalSingle(ref, tag); ok {
			r.SKU = &v
			break
		}
	}
	if v, ok := optionalSingle(ref, "pvp"); ok {
		r.Price = parseDecimal(v)
	}
	var own []candidate
	for _, c := range pool {
		if c.ref == idx {
			own = append(own, c)
		}
	}
	if c, ok := prefer(own); ok {
		code := c.code.String()
		r.Code = &code
	}
	r.Packaging, r.Quantity = detectPackaging(ref)
	return r
}

func codeEntries(pool []candidate, refs []models.Reference, primary *string) []models.CodeEntry {
	var out []models.CodeEntry
	seen := make(map[string]struct{})
	for _, c := range pool {
		code := c.code.String()
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		ce := models.CodeEntry{
			Code:     code,
			Kind:     c.code.Kind(),
			Quantity: 1,
			Primary:  primary != nil && *primary == code,
		}
		if c.ref >= 0 {
			ce.Packaging = refs[c.ref].Packaging
			ce.Quantity = refs[c.ref].Quantity
		}
		out = append(out, ce)
	}
	return out
}

// detectPackaging guesses the packaging level of a reference from its free text.
func detectPackaging(ref *xmlquery.Node) (string, int) {
	var parts []string
	for _, tag := range []string{"ref", "descripcion", "cantidad", "envase"} {
		if v, ok := optionalSingle(ref, tag); ok {
			parts = append(parts, strings.ToLower(v))
		}
	}
	text := strings.Join(parts, " ")
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	}) {
		words[w] = struct{}{}
	}
	has := func(ws ...string) bool {
		for _, w := range ws {
			if _, ok := words[w]; ok {
				return true
			}
		}
		return false
	}

	switch {
	case has("unidad", "unidades", "unit", "ud", "uds", "individual", "single"):
		return "unit", 1
	case has("pack", "blister", "blist"):
		return "pack", quantity(packQtyRe, text)
	case has("caja", "box", "carton"):
		return "box", quantity(boxQtyRe, text)
	case has("pallet", "pale", "palet"):
		return "pallet", 1
	}
	return "unit", 1
}

func quantity(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 1
	}
	for _, g := range m[1:] {
		if n, err := strconv.Atoi(g); err == nil && n > 0 {
			return n
		}
	}
	return 1
}
