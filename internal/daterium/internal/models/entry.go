package models

// Image is one picture URL found on a catalog entry.
type Image struct {
	URL     string
	Tag     string
	Primary bool
}

// Reference is one reference block of an entry.
type Reference struct {
	SKU       *string
	Code      *string
	Price     *float64
	Packaging string
	Quantity  int
}

// Category is one step of the AECOC classification path, top level first.
type Category struct {
	AecocID string
	Name    string
}

// CodeEntry is a validated identifier with the packaging it was found on.
type CodeEntry struct {
	Code      string
	Kind      string
	Packaging string
	Quantity  int
	Primary   bool
}

// CatalogEntry is one ficha as returned by the search API, already normalized.
type CatalogEntry struct {
	ExternalID   *int64
	CatalogID    *string
	Name         string
	Description  *string
	Brand        *string
	BrandLogo    *string
	Family       *string
	Subfamily    *string
	SupplierName *string
	SupplierCIF  *string
	Relevance    *float64

	Thumb     *string
	BestImage *string
	Images    []Image

	References []Reference
	Code       *string
	Codes      []CodeEntry
	SKU        *string
	Price      *float64

	Categories []Category
}

type SkipReason string

const (
	SkipMissingName SkipReason = "missing_name"
)

// ExtractResult is either an extracted entry or the reason it was skipped.
type ExtractResult struct {
	Entry  *CatalogEntry
	Reason SkipReason
}

func Extracted(entry *CatalogEntry) ExtractResult {
	return ExtractResult{Entry: entry}
}

func Skipped(reason SkipReason) ExtractResult {
	return ExtractResult{Reason: reason}
}

func (r ExtractResult) IsSkipped() bool {
	return r.Entry == nil
}
