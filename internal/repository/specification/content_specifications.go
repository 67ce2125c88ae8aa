package specification

import (
	"sort"

	"ai-postgen-be/pkg/store"

	"gorm.io/gorm"
)

// ByPostID filters embeddings owned by a post
type ByPostID struct {
	PostID string
}

func (s ByPostID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("post_id = ?", s.PostID)
}

// ByResourceID matches either the owning post or the resourceId metadata
type ByResourceID struct {
	ID string
}

func (s ByResourceID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("post_id = ? OR metadata->>? = ?", s.ID, store.MetaResourceID, s.ID)
}

// ByMetadata filters on one jsonb metadata key
type ByMetadata struct {
	Key   string
	Value string
}

func (s ByMetadata) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("metadata->>? = ?", s.Key, s.Value)
}

// ByCategory is a no-op for an empty category
type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	if s.Category == "" {
		return db
	}
	return db.Where("category = ?", s.Category)
}

// MetadataFilters turns a filter map into specifications in key order so
// generated SQL is stable.
func MetadataFilters(filter map[string]string) []Specification {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	specs := make([]Specification, 0, len(keys))
	for _, k := range keys {
		specs = append(specs, ByMetadata{Key: k, Value: filter[k]})
	}
	return specs
}
