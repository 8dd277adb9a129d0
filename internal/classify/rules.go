package classify

import "strings"

// CategoryRule assigns Category when any keyword occurs in the base name.
type CategoryRule struct {
	Category Category `toml:"category"`
	Keywords []string `toml:"keywords"`
}

// TagRule adds Tag when any keyword occurs in the base name.
type TagRule struct {
	Tag      string   `toml:"tag"`
	Keywords []string `toml:"keywords"`
}

// Matches reports whether lowerName contains one of the rule's keywords.
func (r CategoryRule) Matches(lowerName string) bool {
	return containsAny(lowerName, r.Keywords)
}

// Matches reports whether lowerName contains one of the rule's keywords.
func (r TagRule) Matches(lowerName string) bool {
	return containsAny(lowerName, r.Keywords)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// DefaultExtensions returns the built-in extension table (keys include the dot).
func DefaultExtensions() map[string]FileType {
	table := map[FileType][]string{
		TypeDocument: {".pdf", ".doc", ".docx", ".txt", ".rtf"},
		TypeImage:    {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg"},
		TypeVideo:    {".mp4", ".avi", ".mov", ".wmv", ".mkv"},
		TypeAudio:    {".mp3", ".wav", ".flac", ".aac"},
		TypeArchive:  {".zip", ".rar", ".7z", ".tar"},
		TypeCode:     {".js", ".py", ".java", ".cpp", ".html", ".css"},
		TypeData:     {".json", ".xml", ".csv", ".xlsx", ".db"},
	}
	out := make(map[string]FileType, 40)
	for t, exts := range table {
		for _, ext := range exts {
			out[ext] = t
		}
	}
	return out
}

// DefaultCategoryRules returns the built-in category rules in priority order.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Category: CategoryProject, Keywords: []string{"project", "final", "draft"}},
		{Category: CategoryWork, Keywords: []string{"work", "business", "report"}},
		{Category: CategoryPersonal, Keywords: []string{"personal", "family", "vacation"}},
		{Category: CategoryTemporary, Keywords: []string{"temp", "tmp", "cache"}},
		{Category: CategoryScreenshot, Keywords: []string{"screenshot", "screen"}},
	}
}

// DefaultTagRules returns the built-in content tag rules.
func DefaultTagRules() []TagRule {
	return []TagRule{
		{Tag: TagFinancial, Keywords: []string{"invoice", "receipt"}},
		{Tag: TagMedia, Keywords: []string{"photo", "image"}},
		{Tag: TagBackup, Keywords: []string{"backup", "copy"}},
	}
}
