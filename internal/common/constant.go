package common

// Resource categories as stored in resources.file_type.
const (
	CategoryFile    = "file"
	CategoryPDF     = "pdf"
	CategorySlides  = "slides"
	CategoryArchive = "archive"
	CategoryYouTube = "youtube"
)

// AllGroupsKey names the "every unit" scope in counters and logs.
const AllGroupsKey = "all"

// IsVideoLink reports whether a resource category points at a video page
// rather than a retrievable file.
func IsVideoLink(category string) bool {
	return category == CategoryYouTube
}
