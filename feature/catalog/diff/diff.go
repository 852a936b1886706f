package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"catalog-sync/feature/catalog/models"
)

// Op classifies what the executor must do with a canonical record.
type Op string

const (
	// OpCreate means no snapshot exists for the sku.
	OpCreate Op = "create"
	// OpUpdate means a snapshot exists and the record must be re-applied.
	OpUpdate Op = "update"
	// OpSkip means the snapshot content hash matches; nothing to do.
	OpSkip Op = "skip"
)

// Decision is the classification of a single incoming record.
type Decision struct {
	// Product is the canonical record being classified.
	Product models.CanonicalProduct
	// Op is the action the executor should take.
	Op Op
	// Hash is the content hash of Product, stored in the snapshot on apply.
	Hash string
}

// hashFields is the documented field set participating in the
// incremental-diff comparison. The sku is the identity, not content,
// and metadata is an open bag excluded to keep hashes stable across
// cosmetic vendor payload changes.
var hashFields = []string{"category", "description", "imageUrl", "price", "title"}

// ContentHash computes a deterministic, order-independent hash over the
// comparable fields of a canonical product. Fields are serialized as
// sorted "name=value" lines and hashed with SHA-256.
func ContentHash(p models.CanonicalProduct) string {
	values := map[string]string{
		"title":       p.Title,
		"description": p.Description,
		"imageUrl":    p.ImageURL,
		"category":    p.Category,
		"price":       "",
	}
	if p.Price != nil {
		values["price"] = strconv.FormatFloat(*p.Price, 'f', -1, 64)
	}

	var b strings.Builder
	for _, field := range hashFields {
		b.WriteString(field)
		b.WriteByte('=')
		b.WriteString(values[field])
		b.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Classify decides Create, Update, or Skip for each incoming record
// against the merchant's snapshots.
//
// With incremental disabled, every record with an existing snapshot is
// an unconditional Update. With incremental enabled, a record whose
// content hash equals the snapshot's hash is a Skip.
func Classify(snapshots map[string]models.ProductSnapshot, records []models.CanonicalProduct, incremental bool) []Decision {
	decisions := make([]Decision, 0, len(records))

	for _, record := range records {
		hash := ContentHash(record)
		snapshot, exists := snapshots[record.SKU]

		op := OpCreate
		if exists {
			op = OpUpdate
			if incremental && snapshot.ContentHash == hash {
				op = OpSkip
			}
		}

		decisions = append(decisions, Decision{
			Product: record,
			Op:      op,
			Hash:    hash,
		})
	}

	return decisions
}

// Deletions returns the snapshot SKUs absent from the incoming batch,
// sorted for deterministic output. It is only meaningful for
// full-catalog sources (scheduled or manual runs); single-record
// webhook updates must never be treated as a full catalog.
func Deletions(snapshots map[string]models.ProductSnapshot, seen map[string]struct{}) []string {
	var missing []string
	for sku := range snapshots {
		if _, ok := seen[sku]; !ok {
			missing = append(missing, sku)
		}
	}
	sort.Strings(missing)
	return missing
}
