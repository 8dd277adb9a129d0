package biome

import (
	"context"

	"biome/internal/export"
)

// SaveSnapshot writes the node store to the snapshot cache. It is a no-op
// when the cache is disabled.
func (s *Service) SaveSnapshot(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	s.mu.RLock()
	lastScan := s.lastScan
	s.mu.RUnlock()
	return s.db.SaveSnapshot(ctx, s.store.Snapshot(), lastScan)
}

// Document assembles an export document from the current state.
func (s *Service) Document() *export.Document {
	doc := export.NewDocument(s.store.Snapshot(), s.GetSummary(), s.now())
	for _, p := range s.usage.All() {
		doc.Usage = append(doc.Usage, export.UsageRecord{
			Path:            p.Path,
			AccessCount:     p.AccessCount,
			LastAccess:      p.LastAccess,
			AccessFrequency: p.AccessFrequency,
		})
	}
	return doc
}

// Export writes the current state to path. An empty format is inferred
// from the file name.
func (s *Service) Export(path string, format export.Format) error {
	if err := export.WriteFile(path, s.Document(), format); err != nil {
		return err
	}
	s.logger.Info("Exported snapshot", "path", path, "nodes", s.store.Len())
	return nil
}
