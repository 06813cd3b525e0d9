// Package contextopt bounds the token footprint of project context by
// externalizing oversized string fields into blob files.
package contextopt

import (
	"fmt"
	"path/filepath"

	"github.com/auraihq/aurai/internal/logging"
	"github.com/auraihq/aurai/internal/tokens"
)

// DefaultThreshold is the token estimate above which a string field is
// cached to a blob file instead of traveling inline.
const DefaultThreshold = 800

// BlobStore persists externalized content.
type BlobStore interface {
	Save(content string) (string, error)
}

// Optimizer walks nested project info maps and externalizes oversized
// string values.
type Optimizer struct {
	store     BlobStore
	threshold int
	logger    *logging.Logger
}

// NewOptimizer builds an Optimizer; threshold <= 0 selects the default.
func NewOptimizer(store BlobStore, threshold int, logger *logging.Logger) *Optimizer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Optimizer{store: store, threshold: threshold, logger: logger}
}

// Optimize returns a copy of info with every oversized string value replaced
// by a placeholder naming its blob file, the list of created blob paths, and
// the blob path to original content mapping. Nested maps recurse and their
// results merge into the parent's. Lists and non-string scalars pass through
// untouched, even when a list element holds oversized text.
//
// A blob write failure keeps the value inline; the operation never fails as
// a whole.
func (o *Optimizer) Optimize(info map[string]any) (map[string]any, []string, map[string]string) {
	optimized := make(map[string]any, len(info))
	var blobPaths []string
	contents := make(map[string]string)

	for key, value := range info {
		switch v := value.(type) {
		case string:
			estimate := tokens.Estimate(v)
			if estimate <= o.threshold {
				optimized[key] = v
				continue
			}
			path, err := o.store.Save(v)
			if err != nil {
				o.logger.Warnf("externalize field %q failed, keeping inline: %v", key, err)
				optimized[key] = v
				continue
			}
			blobPaths = append(blobPaths, path)
			contents[path] = v
			optimized[key] = fmt.Sprintf("[oversized content cached to file: %s]", filepath.Base(path))
			o.logger.Infof("field %q too large (%d tokens), cached to file", key, estimate)
		case map[string]any:
			nested, nestedPaths, nestedContents := o.Optimize(v)
			optimized[key] = nested
			blobPaths = append(blobPaths, nestedPaths...)
			for p, c := range nestedContents {
				contents[p] = c
			}
		default:
			optimized[key] = value
		}
	}

	return optimized, blobPaths, contents
}

// Threshold returns the configured externalization threshold in tokens.
func (o *Optimizer) Threshold() int {
	return o.threshold
}
