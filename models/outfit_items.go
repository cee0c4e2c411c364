package models

import "github.com/lib/pq"

// SanitizeItemIDs drops ids that are not UUIDs and collapses duplicates,
// keeping first-seen order.
func SanitizeItemIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !IsUUID(id) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ResolveOutfitItems keeps the candidates that exist in the catalog, given
// as id -> image. The thumbnail is the image of the first kept item.
// An empty result is a validation failure.
func ResolveOutfitItems(candidates []string, existing map[string]string) (pq.StringArray, string, error) {
	items := make(pq.StringArray, 0, len(candidates))
	thumbnail := ""
	for _, id := range SanitizeItemIDs(candidates) {
		image, ok := existing[id]
		if !ok {
			continue
		}
		if len(items) == 0 {
			thumbnail = image
		}
		items = append(items, id)
	}
	if len(items) == 0 {
		return nil, "", NewValidationError("items", "no valid items")
	}
	return items, thumbnail, nil
}
