package catalog

import (
	"encoding/json"
	"os"

	"go.uber.org/zap"
)

type seedFile struct {
	Products []Product `json:"products"`
}

// LoadSeed builds a MemStore from the products JSON document at path. A missing
// or unreadable file is recoverable: the store starts empty and the first Add
// gets id 1.
func LoadSeed(path string, log *zap.Logger) *MemStore {
	s := NewMemStore()

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("products seed not found, starting empty",
			zap.String("path", path), zap.Error(err))
		return s
	}

	var f seedFile
	if err := json.Unmarshal(raw, &f); err != nil {
		log.Error("products seed unreadable, starting empty",
			zap.String("path", path), zap.Error(err))
		return s
	}

	s.seed(f.Products)
	log.Info("products seeded",
		zap.String("path", path), zap.Int("count", len(f.Products)))
	return s
}
