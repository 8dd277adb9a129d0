package classify

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Classifier evaluates an extension table and ordered rule lists.
// A Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	extensions map[string]FileType
	categories []CategoryRule
	tags       []TagRule
}

// New builds a classifier from explicit tables. Extension keys are
// normalized to lower case with a leading dot.
func New(extensions map[string]FileType, categories []CategoryRule, tags []TagRule) *Classifier {
	ext := make(map[string]FileType, len(extensions))
	for k, v := range extensions {
		k = strings.ToLower(k)
		if !strings.HasPrefix(k, ".") {
			k = "." + k
		}
		ext[k] = v
	}
	return &Classifier{
		extensions: ext,
		categories: append([]CategoryRule(nil), categories...),
		tags:       append([]TagRule(nil), tags...),
	}
}

// Default returns the built-in classifier.
func Default() *Classifier {
	return New(DefaultExtensions(), DefaultCategoryRules(), DefaultTagRules())
}

// Classify returns {type, category, tags} for path. Tags always start with
// the type and the category, followed by any matching tag rules.
func (c *Classifier) Classify(path string) Classification {
	name := strings.ToLower(filepath.Base(path))
	fileType := c.TypeOf(path)
	category := c.categoryOf(name)

	tags := []string{string(fileType), string(category)}
	seen := map[string]bool{tags[0]: true, tags[1]: true}
	for _, rule := range c.tags {
		if !seen[rule.Tag] && rule.Matches(name) {
			tags = append(tags, rule.Tag)
			seen[rule.Tag] = true
		}
	}

	return Classification{Type: fileType, Category: category, Tags: tags}
}

// TypeOf returns the file type for path's extension, or TypeUnknown.
func (c *Classifier) TypeOf(path string) FileType {
	if t, ok := c.extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return TypeUnknown
}

func (c *Classifier) categoryOf(lowerName string) Category {
	for _, rule := range c.categories {
		if rule.Matches(lowerName) {
			return rule.Category
		}
	}
	return CategoryGeneral
}

// rulesFile is the TOML layout of an external rules file:
//
//	[extensions]
//	".heic" = "image"
//
//	[[category]]
//	category = "work"
//	keywords = ["invoice", "contract"]
//
//	[[tag]]
//	tag = "financial"
//	keywords = ["tax"]
type rulesFile struct {
	Extensions map[string]FileType `toml:"extensions"`
	Categories []CategoryRule      `toml:"category"`
	Tags       []TagRule           `toml:"tag"`
}

// LoadFile builds a classifier from a TOML rules file. Extensions are merged
// over the defaults; a non-empty category or tag list replaces the default
// list entirely so that the file fully controls rule priority.
func LoadFile(path string) (*Classifier, error) {
	var rf rulesFile
	if _, err := toml.DecodeFile(path, &rf); err != nil {
		return nil, fmt.Errorf("failed to decode rules file %s: %w", path, err)
	}

	extensions := DefaultExtensions()
	for ext, t := range rf.Extensions {
		if !t.Valid() {
			return nil, fmt.Errorf("rules file %s: unknown file type %q for %s", path, t, ext)
		}
		extensions[ext] = t
	}

	categories := DefaultCategoryRules()
	if len(rf.Categories) > 0 {
		for _, rule := range rf.Categories {
			if !rule.Category.Valid() {
				return nil, fmt.Errorf("rules file %s: unknown category %q", path, rule.Category)
			}
		}
		categories = lowerRules(rf.Categories)
	}

	tags := DefaultTagRules()
	if len(rf.Tags) > 0 {
		tags = make([]TagRule, 0, len(rf.Tags))
		for _, rule := range rf.Tags {
			if rule.Tag == "" {
				return nil, fmt.Errorf("rules file %s: tag rule without a tag name", path)
			}
			tags = append(tags, TagRule{Tag: rule.Tag, Keywords: lowerAll(rule.Keywords)})
		}
	}

	return New(extensions, categories, tags), nil
}

func lowerRules(rules []CategoryRule) []CategoryRule {
	out := make([]CategoryRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, CategoryRule{Category: r.Category, Keywords: lowerAll(r.Keywords)})
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
