// Package extract turns search response documents into normalized catalog entries.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"gocatalog_crawler/internal/daterium/internal/models"
	"gocatalog_crawler/pkg/business/service"
)

// imageTags are ordered by resolution, best first.
var imageTags = []string{"img500x500", "amp", "img280x240", "thumb"}

var (
	explicitCodeTags = []string{"ean", "ean13", "gtin", "gtin13", "gtin14", "barcode", "codigobarras", "codigo_barras", "upc"}
	looseCodeTags    = []string{"ref", "sku", "codigo", "code", "reference", "modelo"}
	skuTags          = []string{"ref", "sku", "codigo", "code", "reference"}
)

var digitRunRe = regexp.MustCompile(`\d+`)

type Extractor struct {
	text service.ITextService
}

func NewExtractor(text service.ITextService) *Extractor {
	return &Extractor{text: text}
}

// Batch is the outcome of extracting one response.
type Batch struct {
	Entries []*models.CatalogEntry
	Skipped map[models.SkipReason]int
}

func (b Batch) SkippedTotal() int {
	total := 0
	for _, n := range b.Skipped {
		total += n
	}
	return total
}

func (e *Extractor) ExtractAll(nodes []*xmlquery.Node) Batch {
	batch := Batch{Skipped: make(map[models.SkipReason]int)}
	for _, node := range nodes {
		res := e.Extract(node)
		if res.IsSkipped() {
			batch.Skipped[res.Reason]++
			continue
		}
		batch.Entries = append(batch.Entries, res.Entry)
	}
	return batch
}

// Extract reads one ficha node. Entries without a name are skipped.
func (e *Extractor) Extract(node *xmlquery.Node) models.ExtractResult {
	name := e.cleanField(node, "nombre")
	if name == nil {
		return models.Skipped(models.SkipMissingName)
	}

	entry := &models.CatalogEntry{
		ExternalID:   externalID(node),
		Name:         *name,
		Brand:        e.cleanField(node, "marca"),
		BrandLogo:    rawField(node, "logo_marca"),
		Family:       e.familyField(node, "familia"),
		Subfamily:    e.familyField(node, "subfamilia"),
		SupplierName: e.cleanField(node, "proveedor"),
		SupplierCIF:  rawField(node, "proveedor_cif"),
		Thumb:        rawField(node, "thumb"),
	}
	if v, ok := attr(node, "idcatalogo"); ok {
		entry.CatalogID = &v
	}
	if v, ok := attr(node, "relevancia"); ok {
		entry.Relevance = parseDecimal(v)
	}
	entry.Description = e.cleanField(node, "descripcion")
	if entry.Description == nil {
		entry.Description = e.cleanField(node, "descripcioncorta")
	}

	e.extractImages(node, entry)
	e.extractCodes(node, entry)
	entry.Categories = e.extractCategories(node)

	return models.Extracted(entry)
}

func (e *Extractor) cleanField(node *xmlquery.Node, tag string) *string {
	v, ok := optionalSingle(node, tag)
	if !ok {
		return nil
	}
	return strPtr(e.text.Clean(v))
}

// familyField treats the upstream catch-all "otros" as no family.
func (e *Extractor) familyField(node *xmlquery.Node, tag string) *string {
	v := e.cleanField(node, tag)
	if v == nil || strings.EqualFold(*v, "otros") {
		return nil
	}
	return v
}

func rawField(node *xmlquery.Node, tag string) *string {
	v, ok := optionalSingle(node, tag)
	if !ok {
		return nil
	}
	return &v
}

// externalID prefers the id child and falls back to the idcatalogo attribute.
func externalID(node *xmlquery.Node) *int64 {
	if v, ok := optionalSingle(node, "id"); ok {
		if id, ok := parseID(v); ok {
			return &id
		}
	}
	if v, ok := attr(node, "idcatalogo"); ok {
		if id, ok := parseID(v); ok {
			return &id
		}
	}
	return nil
}

func parseID(v string) (int64, bool) {
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(v, 10, 64)
	return id, err == nil
}

func (e *Extractor) extractImages(node *xmlquery.Node, entry *models.CatalogEntry) {
	seen := make(map[string]struct{})
	for _, tag := range imageTags {
		url, ok := optionalSingle(node, tag)
		if !ok {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		entry.Images = append(entry.Images, models.Image{URL: url, Tag: tag})
	}
	if len(entry.Images) > 0 {
		entry.Images[0].Primary = true
		best := entry.Images[0].URL
		entry.BestImage = &best
	}
}

func (e *Extractor) extractCategories(node *xmlquery.Node) []models.Category {
	var out []models.Category
	for _, aecoc := range zeroOrMore(node, "aecoc") {
		for _, step := range descendants(aecoc, "paso") {
			name, okName := optionalSingle(step, "nombre")
			id, okID := optionalSingle(step, "aecocid")
			if !okName || !okID {
				continue
			}
			out = append(out, models.Category{AecocID: id, Name: e.text.Clean(name)})
		}
	}
	return out
}

func parseDecimal(v string) *float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if strings.Contains(v, ",") {
		v = strings.ReplaceAll(v, ".", "")
		v = strings.ReplaceAll(v, ",", ".")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
