// Package strings holds the small set of category-name constants shared
// across the pipeline. Kept as typed constants (not raw literals) so the
// categorizer, config defaults, and catalog queries can't drift out of sync.
package strings

// Category labels. These are the values stored in CatalogEntry.Category.
const (
	CatOther    = "Other"
	CatUnsorted = "Unsorted"
	CatImage    = "Image"
	CatVideo    = "Video"
	CatDocument = "Document"
	CatMusic    = "Music"
	CatArchive  = "Archive"
	CatCode     = "Code"
	Cat3D       = "3D"
	CatSoftware = "Software"
	CatBundle   = "Project/Bundle"
)

// DefaultMime is used when no magic-byte probe has run or it found nothing.
const DefaultMime = "application/octet-stream"
