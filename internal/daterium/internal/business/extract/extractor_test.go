package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog_crawler/internal/daterium/internal/models"
	"gocatalog_crawler/pkg/business/service"
)

const brocaDoc = `<?xml version="1.0" encoding="UTF-8"?>
<resultados>
  <ficha idcatalogo="123" relevancia="9,5">
    <id>7771</id>
    <nombre>Broca HSS 6mm</nombre>
    <descripcioncorta>Broca para   metal</descripcioncorta>
    <marca>Tivoly</marca>
    <logo_marca>http://img.example/tivoly.png</logo_marca>
    <familia>Brocas</familia>
    <subfamilia>Brocas metal</subfamilia>
    <proveedor>Herramientas Tivoly SA</proveedor>
    <proveedor_cif>A12345678</proveedor_cif>
    <thumb>http://img.example/t.jpg</thumb>
    <img280x240>http://img.example/280.jpg</img280x240>
    <img500x500>http://img.example/500.jpg</img500x500>
    <referencias>
      <referencia>
        <ref>TIV-6</ref>
        <ean>8412345678905</ean>
        <pvp>3,45</pvp>
      </referencia>
    </referencias>
    <aecoc>
      <ruta>
        <paso><nombre>Ferreteria</nombre><aecocid>12</aecocid></paso>
        <paso><nombre>Brocas</nombre><aecocid>1203</aecocid></paso>
      </ruta>
    </aecoc>
  </ficha>
  <ficha>
    <id>8</id>
    <nombre>   </nombre>
  </ficha>
</resultados>`

func newExtractor() *Extractor {
	return NewExtractor(service.NewTextService())
}

func extractOne(t *testing.T, doc string) *models.CatalogEntry {
	t.Helper()
	nodes, err := ParseDocument([]byte(doc))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	res := newExtractor().Extract(nodes[0])
	require.False(t, res.IsSkipped())
	return res.Entry
}

func TestExtractAll_BrocaDocument(t *testing.T) {
	nodes, err := ParseDocument([]byte(brocaDoc))
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	batch := newExtractor().ExtractAll(nodes)
	require.Len(t, batch.Entries, 1)
	assert.Equal(t, 1, batch.Skipped[models.SkipMissingName])
	assert.Equal(t, 1, batch.SkippedTotal())

	e := batch.Entries[0]
	require.NotNil(t, e.ExternalID)
	assert.Equal(t, int64(7771), *e.ExternalID)
	assert.Equal(t, "Broca HSS 6mm", e.Name)
	assert.Equal(t, "Broca para metal", *e.Description)
	assert.Equal(t, "Tivoly", *e.Brand)
	assert.Equal(t, "http://img.example/tivoly.png", *e.BrandLogo)
	assert.Equal(t, "Brocas", *e.Family)
	assert.Equal(t, "Brocas metal", *e.Subfamily)
	assert.Equal(t, "Herramientas Tivoly SA", *e.SupplierName)
	assert.Equal(t, "A12345678", *e.SupplierCIF)
	assert.Equal(t, "123", *e.CatalogID)
	assert.InDelta(t, 9.5, *e.Relevance, 0.0001)

	require.NotNil(t, e.Code)
	assert.Equal(t, "8412345678905", *e.Code)
	assert.InDelta(t, 3.45, *e.Price, 0.0001)
	assert.Equal(t, "TIV-6", *e.SKU)
	require.Len(t, e.Codes, 1)
	assert.True(t, e.Codes[0].Primary)
	assert.Equal(t, "ean13", e.Codes[0].Kind)

	assert.Equal(t, []models.Category{{AecocID: "12", Name: "Ferreteria"}, {AecocID: "1203", Name: "Brocas"}}, e.Categories)
}

func TestExtract_BestImageIsHighestResolution(t *testing.T) {
	e := extractOne(t, `<r><ficha><id>1</id><nombre>Sierra</nombre>
		<img280x240>Y</img280x240><img500x500>X</img500x500></ficha></r>`)

	require.NotNil(t, e.BestImage)
	assert.Equal(t, "X", *e.BestImage)
	assert.Equal(t, []models.Image{
		{URL: "X", Tag: "img500x500", Primary: true},
		{URL: "Y", Tag: "img280x240"},
	}, e.Images)
}

func TestExtract_DuplicateImageURLsCollapse(t *testing.T) {
	e := extractOne(t, `<r><ficha><id>1</id><nombre>Sierra</nombre>
		<thumb>X</thumb><amp>X</amp></ficha></r>`)
	require.Len(t, e.Images, 1)
	assert.Equal(t, "amp", e.Images[0].Tag)
	assert.Equal(t, "X", *e.Thumb)
}

func TestExtract_MissingNameIsSkipped(t *testing.T) {
	nodes, err := ParseDocument([]byte(`<r><ficha><id>5</id><descripcion>sin nombre</descripcion></ficha></r>`))
	require.NoError(t, err)
	res := newExtractor().Extract(nodes[0])
	assert.True(t, res.IsSkipped())
	assert.Equal(t, models.SkipMissingName, res.Reason)
	assert.Nil(t, res.Entry)
}

func TestExtract_ExternalIDFallback(t *testing.T) {
	e := extractOne(t, `<r><ficha idcatalogo="555"><id>abc</id><nombre>Llave</nombre></ficha></r>`)
	require.NotNil(t, e.ExternalID)
	assert.Equal(t, int64(555), *e.ExternalID)

	e = extractOne(t, `<r><ficha idcatalogo="X-1"><nombre>Llave</nombre></ficha></r>`)
	assert.Nil(t, e.ExternalID)
	assert.Equal(t, "X-1", *e.CatalogID)
}

func TestExtract_DescriptionPrefersLongForm(t *testing.T) {
	e := extractOne(t, `<r><ficha><id>1</id><nombre>Nivel</nombre>
		<descripcion>Nivel de aluminio 60cm</descripcion><descripcioncorta>Nivel</descripcioncorta></ficha></r>`)
	assert.Equal(t, "Nivel de aluminio 60cm", *e.Description)
}

func TestExtract_ThirteenDigitCodeBeatsEight(t *testing.T) {
	e := extractOne(t, `<r><ficha><id>1</id><nombre>Martillo</nombre><referencias>
		<referencia><ean>96385074</ean><pvp>1,00</pvp></referencia>
		<referencia><ean>8412345678905</ean><pvp>12,50</pvp></referencia>
	</referencias></ficha></r>`)

	assert.Equal(t, "8412345678905", *e.Code)
	assert.InDelta(t, 12.5, *e.Price, 0.0001)
	require.Len(t, e.References, 2)
	assert.Equal(t, "96385074", *e.References[0].Code)
	require.Len(t, e.Codes, 2)
	assert.False(t, e.Codes[0].Primary)
	assert.True(t, e.Codes[1].Primary)
}

func TestExtract_InvalidCodesAreIgnored(t *testing.T) {
	e := extractOne(t, `<r><ficha><id>1</id><nombre>Martillo</nombre><referencias>
		<referencia><ean>8412345678906</ean><pvp>2</pvp></referencia>
	</referencias></ficha></r>`)
	assert.Nil(t, e.Code)
	assert.Empty(t, e.Codes)
	assert.InDelta(t, 2.0, *e.Price, 0.0001)
}

func TestExtract_LooseReferenceText(t *testing.T) {
	e := extractOne(t, `<r><ficha><id>1</id><nombre>Alicate</nombre><referencias>
		<referencia><ref>ALC 4006381333931 R</ref></referencia>
	</referencias></ficha></r>`)
	require.NotNil(t, e.Code)
	assert.Equal(t, "4006381333931", *e.Code)
}

func TestExtract_NameTextIsLastResort(t *testing.T) {
	e := extractOne(t, `<r><ficha><id>1</id><nombre>Sierra 5901234123457</nombre></ficha></r>`)
	require.NotNil(t, e.Code)
	assert.Equal(t, "5901234123457", *e.Code)

	e = extractOne(t, `<r><ficha><id>1</id><nombre>Sierra 5901234123457</nombre>
		<referencias><referencia><ean>96385074</ean></referencia></referencias></ficha></r>`)
	assert.Equal(t, "96385074", *e.Code)
}

func TestExtract_CompletesTwelveDigitExplicitCode(t *testing.T) {
	e := extractOne(t, `<r><ficha><id>1</id><nombre>Tuerca</nombre>
		<referencias><referencia><ean>841234567890</ean></referencia></referencias></ficha></r>`)
	require.NotNil(t, e.Code)
	assert.Equal(t, "8412345678905", *e.Code)
}

func TestExtract_OtrosFamilyIsDropped(t *testing.T) {
	e := extractOne(t, `<r><ficha><id>1</id><nombre>Taco</nombre><familia>OTROS</familia><subfamilia>Tacos</subfamilia></ficha></r>`)
	assert.Nil(t, e.Family)
	assert.Equal(t, "Tacos", *e.Subfamily)
}

func TestExtract_Packaging(t *testing.T) {
	e := extractOne(t, `<r><ficha><id>1</id><nombre>Tornillo</nombre><referencias>
		<referencia><ean>8412345678905</ean><cantidad>Caja 12</cantidad></referencia>
		<referencia><ean>96385074</ean><envase>Blister</envase></referencia>
	</referencias></ficha></r>`)
	require.Len(t, e.References, 2)
	assert.Equal(t, "box", e.References[0].Packaging)
	assert.Equal(t, 12, e.References[0].Quantity)
	assert.Equal(t, "pack", e.References[1].Packaging)
	assert.Equal(t, 1, e.References[1].Quantity)
	assert.Equal(t, 12, e.Codes[0].Quantity)
}

func TestParseDocument_Malformed(t *testing.T) {
	_, err := ParseDocument([]byte(`<resultados><ficha><nombre>x</ficha></resultados>`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseDocument([]byte("   "))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseDocument_NoEntries(t *testing.T) {
	nodes, err := ParseDocument([]byte(`<resultados total="0"></resultados>`))
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestParseDocument_UndeclaredLatin1(t *testing.T) {
	body := []byte("<r><ficha><id>1</id><nombre>Ca\xf1a de pescar</nombre></ficha></r>")
	e := extractOne(t, string(body))
	assert.Equal(t, "Caña de pescar", e.Name)
}

func TestParseDocument_DeclaredLatin1(t *testing.T) {
	body := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><r><ficha><id>1</id><nombre>Ca\xf1a</nombre></ficha></r>")
	e := extractOne(t, string(body))
	assert.Equal(t, "Caña", e.Name)
}
