package timeline

import (
	"strings"
)

type FileFormat string

const (
	FormatPDF   FileFormat = "PDF"
	FormatPPT   FileFormat = "PPT"
	FormatDoc   FileFormat = "DOC"
	FormatForm  FileFormat = "FORM"
	FormatVideo FileFormat = "VIDEO"
)

// SearchLimit caps the number of search results.
const SearchLimit = 5

// SearchCriteria is what a chat message asked to find. Empty fields match everything.
type SearchCriteria struct {
	CourseName string     `json:"courseName,omitempty"`
	Keywords   []string   `json:"keywords,omitempty"`
	Type       string     `json:"type,omitempty"` // ASSIGNMENT | TEST | MATERIAL
	FileFormat FileFormat `json:"fileFormat,omitempty"`
}

// Search filters items by criteria, keeping their order, up to SearchLimit.
func Search(items []CombinedItem, c SearchCriteria) []CombinedItem {
	results := make([]CombinedItem, 0, SearchLimit)
	for _, it := range items {
		if len(results) == SearchLimit {
			break
		}
		if c.matches(it) {
			results = append(results, it)
		}
	}
	return results
}

func (c SearchCriteria) matches(it CombinedItem) bool {
	if course := strings.ToLower(strings.TrimSpace(c.CourseName)); course != "" {
		if !strings.Contains(strings.ToLower(it.CourseName), course) {
			return false
		}
	}

	switch strings.ToUpper(c.Type) {
	case "TEST":
		if it.Type != TypeTest && it.Type != TypeUrgent {
			return false
		}
	case "ASSIGNMENT":
		if it.Type != TypeAssignment {
			return false
		}
	case "MATERIAL":
		if it.Type != TypeMaterial {
			return false
		}
	}

	if kws := nonEmpty(c.Keywords); len(kws) > 0 {
		content := strings.ToLower(it.Title + " " + it.Description + " " + it.CourseName)
		var hit bool
		for _, k := range kws {
			if strings.Contains(content, strings.ToLower(k)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	if c.FileFormat != "" {
		for _, m := range it.Materials {
			if m.Is(c.FileFormat) {
				return true
			}
		}
		return false
	}
	return true
}

// Is reports whether the material is a file of the given format.
func (m Material) Is(f FileFormat) bool {
	title := strings.ToLower(m.Title)
	switch FileFormat(strings.ToUpper(string(f))) {
	case FormatPDF:
		return m.Kind == MaterialDriveFile && strings.HasSuffix(title, ".pdf")
	case FormatPPT:
		return m.Kind == MaterialDriveFile && (strings.HasSuffix(title, ".pptx") || strings.Contains(title, "presentation"))
	case FormatDoc:
		return m.Kind == MaterialDriveFile && strings.HasSuffix(title, ".docx")
	case FormatForm:
		return m.Kind == MaterialForm
	case FormatVideo:
		return m.Kind == MaterialYouTubeVideo
	}
	return false
}

func nonEmpty(ss []string) []string {
	out := ss[:0:0]
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
