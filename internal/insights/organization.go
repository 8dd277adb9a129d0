package insights

import (
	"path/filepath"
	"strings"

	"biome/internal/node"
)

// Organization buckets.
const (
	BucketDocuments = "documents"
	BucketMedia     = "media"
	BucketTemp      = "temp"
	BucketDownloads = "downloads"
	BucketWork      = "work"
)

var bucketOrder = []string{BucketDocuments, BucketMedia, BucketTemp, BucketDownloads, BucketWork}

var (
	documentExts = map[string]bool{".doc": true, ".docx": true, ".pdf": true, ".txt": true, ".rtf": true}
	mediaExts    = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".mp4": true, ".avi": true, ".mp3": true}
)

const (
	minBucketFiles   = 5
	highBucketFiles  = 20
	maxSuggestionLen = 10
)

// SampleFile is one example file in an organization suggestion.
type SampleFile struct {
	Path   string `json:"path" yaml:"path"`
	Name   string `json:"name" yaml:"name"`
	Reason string `json:"reason" yaml:"reason"`
}

// OrganizationSuggestion proposes organizing a bucket of similar files.
type OrganizationSuggestion struct {
	Action    string       `json:"action" yaml:"action"`
	Bucket    string       `json:"bucket" yaml:"bucket"`
	FileCount int          `json:"fileCount" yaml:"fileCount"`
	Files     []SampleFile `json:"files" yaml:"files"`
	Priority  string       `json:"priority" yaml:"priority"`
}

// bucketOf assigns a file to the first matching bucket, or "".
func bucketOf(path string) (string, string) {
	name := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(name)
	switch {
	case documentExts[ext]:
		return BucketDocuments, "Document file"
	case mediaExts[ext]:
		return BucketMedia, "Media file"
	case strings.Contains(name, "temp") || strings.Contains(name, "cache"):
		return BucketTemp, "Temporary file"
	case strings.Contains(strings.ToLower(filepath.Dir(path)), "downloads"):
		return BucketDownloads, "Downloaded file"
	case strings.Contains(name, "work") || strings.Contains(name, "project"):
		return BucketWork, "Work-related file"
	}
	return "", ""
}

// Organization suggests organizing every bucket holding more than five
// files. Each suggestion carries up to ten sample files and is high
// priority above twenty files.
func (a *Analyzer) Organization(nodes []node.FileNode) []OrganizationSuggestion {
	buckets := make(map[string][]SampleFile)
	for _, n := range nodes {
		b, reason := bucketOf(n.Path)
		if b == "" {
			continue
		}
		buckets[b] = append(buckets[b], SampleFile{Path: n.Path, Name: n.Name, Reason: reason})
	}

	out := []OrganizationSuggestion{}
	for _, b := range bucketOrder {
		files := buckets[b]
		if len(files) <= minBucketFiles {
			continue
		}
		priority := "medium"
		if len(files) > highBucketFiles {
			priority = "high"
		}
		sample := files
		if len(sample) > maxSuggestionLen {
			sample = sample[:maxSuggestionLen]
		}
		out = append(out, OrganizationSuggestion{
			Action:    "organize",
			Bucket:    b,
			FileCount: len(files),
			Files:     sample,
			Priority:  priority,
		})
	}
	return out
}
