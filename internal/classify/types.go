// Package classify maps a path to a file type, a category and a tag set.
//
// Classification is pure and total: it looks only at the path string and
// never touches the filesystem. Category and tag decisions come from ordered
// rule lists evaluated against the lower-cased base name; the first matching
// category rule wins.
package classify

// FileType is the coarse kind of a file, derived from its extension.
type FileType string

const (
	TypeDocument FileType = "document"
	TypeImage    FileType = "image"
	TypeVideo    FileType = "video"
	TypeAudio    FileType = "audio"
	TypeArchive  FileType = "archive"
	TypeCode     FileType = "code"
	TypeData     FileType = "data"
	TypeUnknown  FileType = "unknown"
)

// Category is the organizational bucket derived from the file name.
type Category string

const (
	CategoryProject    Category = "project"
	CategoryWork       Category = "work"
	CategoryPersonal   Category = "personal"
	CategoryTemporary  Category = "temporary"
	CategoryScreenshot Category = "screenshot"
	CategoryGeneral    Category = "general"
)

// Tag names added by the default tag rules.
const (
	TagFinancial = "financial"
	TagMedia     = "media"
	TagBackup    = "backup"
)

var knownTypes = map[FileType]bool{
	TypeDocument: true, TypeImage: true, TypeVideo: true, TypeAudio: true,
	TypeArchive: true, TypeCode: true, TypeData: true, TypeUnknown: true,
}

var knownCategories = map[Category]bool{
	CategoryProject: true, CategoryWork: true, CategoryPersonal: true,
	CategoryTemporary: true, CategoryScreenshot: true, CategoryGeneral: true,
}

// Valid reports whether t is one of the known file types.
func (t FileType) Valid() bool { return knownTypes[t] }

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool { return knownCategories[c] }

// Classification is the result of classifying one path.
type Classification struct {
	Type     FileType `json:"type"`
	Category Category `json:"category"`
	Tags     []string `json:"tags"`
}

// HasTag reports whether tag is present.
func (c Classification) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
