package domain

// Photo is a single search result
type Photo struct {
	ID             string
	Width          int
	Height         int
	Description    string // Empty when the API omits it
	AltDescription string // Empty when the API omits it
	URLs           PhotoURLs
	User           User
}

// Caption returns the description, falling back to the alt description
func (p Photo) Caption() string {
	if p.Description != "" {
		return p.Description
	}
	return p.AltDescription
}

// AspectRatio returns width/height, or 0 when the height is unknown
func (p Photo) AspectRatio() float64 {
	if p.Height <= 0 {
		return 0
	}
	return float64(p.Width) / float64(p.Height)
}

// PhotoURLs holds the rendition URLs of a photo. Empty means absent.
type PhotoURLs struct {
	Raw     string
	Full    string
	Regular string
	Small   string
	Thumb   string
	SmallS3 string
}

// Variant names accepted by PhotoURLs.Variant
const (
	VariantRaw     = "raw"
	VariantFull    = "full"
	VariantRegular = "regular"
	VariantSmall   = "small"
	VariantThumb   = "thumb"
	VariantSmallS3 = "small_s3"
)

// Variant returns the URL for a named rendition ("" if unknown or absent)
func (u PhotoURLs) Variant(name string) string {
	switch name {
	case VariantRaw:
		return u.Raw
	case VariantFull:
		return u.Full
	case VariantRegular:
		return u.Regular
	case VariantSmall:
		return u.Small
	case VariantThumb:
		return u.Thumb
	case VariantSmallS3:
		return u.SmallS3
	default:
		return ""
	}
}

// User is the author of a photo
type User struct {
	ID           string
	Username     string
	Name         string
	Bio          string
	ProfileImage ProfileImage
}

// ProfileImage holds the avatar URLs of a user
type ProfileImage struct {
	Small  string
	Medium string
	Large  string
}

// Page is one fetched batch of search results.
// Index is zero-based; the API's 1-based numbering never leaves the client.
type Page struct {
	Index      int
	Total      int // Total matching photos across the whole search
	TotalPages int
	Results    []Photo
}

// RowSize returns ceil(Total/TotalPages), or 0 if the page carries no totals.
func (p *Page) RowSize() int {
	if p == nil || p.Total <= 0 || p.TotalPages <= 0 {
		return 0
	}
	return (p.Total + p.TotalPages - 1) / p.TotalPages
}

// RowRange is a half-open range of absolute row indices [Start, End)
type RowRange struct {
	Start int
	End   int
}

// Len returns the number of rows in the range
func (r RowRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether row lies within the range
func (r RowRange) Contains(row int) bool {
	return row >= r.Start && row < r.End
}
