// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/studyportal/internal/common"
)

// Resource is one piece of study material attached to a unit. The bytes
// live in external blob storage; FileURL points at them.
type Resource struct {
	ID    string
	Title string
	// FileURL is an absolute http(s) or s3:// URL, or a video page for
	// video-link resources.
	FileURL string
	// FileType is the resource category, see common.Category*.
	FileType string
	UnitID   string
	// UnitName is joined from units and used to namespace entries when a
	// whole catalogue is archived.
	UnitName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Downloadable reports whether the resource can be fetched as a file.
func (r *Resource) Downloadable() bool {
	return !common.IsVideoLink(r.FileType)
}
