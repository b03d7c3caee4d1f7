package archiver

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/studyportal/internal/server/models"
)

const (
	defaultExtension = "file"
	untitled         = "untitled"
	ungrouped        = "ungrouped"
)

// SanitizeTitle replaces every rune outside [A-Za-z0-9] with '_'.
func SanitizeTitle(title string) string {
	if title == "" {
		return untitled
	}
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Extension returns the text after the last '.' of the last path segment of
// rawURL, ignoring query and fragment. It falls back to "file".
func Extension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	seg := path.Base(p)
	i := strings.LastIndexByte(seg, '.')
	if i < 0 || i == len(seg)-1 {
		return defaultExtension
	}

	ext := seg[i+1:]
	if strings.Trim(ext, "/.") == "" {
		return defaultExtension
	}
	return SanitizeTitle(ext)
}

// GroupDir turns a unit name into a single archive directory component.
func GroupDir(unitName string) string {
	dir := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(unitName))
	if strings.Trim(dir, ".") == "" {
		return ungrouped
	}
	return dir
}

// namer hands out unique entry names. Names compare case-insensitively since
// common unzip targets fold case.
type namer struct {
	namespaced bool
	taken      map[string]struct{}
}

func newNamer(namespaced bool) *namer {
	return &namer{namespaced: namespaced, taken: make(map[string]struct{})}
}

// base returns the entry name r would get if nothing collided with it.
func (n *namer) base(r *models.Resource) (prefix, stem, ext string) {
	if n.namespaced {
		prefix = GroupDir(r.UnitName) + "/"
	}
	return prefix, SanitizeTitle(r.Title), Extension(r.FileURL)
}

// claim reserves and returns a unique name for r: Notes.pdf, Notes_2.pdf, ...
func (n *namer) claim(r *models.Resource) string {
	prefix, stem, ext := n.base(r)

	name := prefix + stem + "." + ext
	for i := 2; n.isTaken(name); i++ {
		name = prefix + stem + "_" + strconv.Itoa(i) + "." + ext
	}

	n.taken[strings.ToLower(name)] = struct{}{}
	return name
}

func (n *namer) isTaken(name string) bool {
	_, ok := n.taken[strings.ToLower(name)]
	return ok
}
