package services

import "feed-sync-service/internal/models"

// Diff returns the records whose value differs from the snapshot or whose
// SKU is absent from it. Equal values are excluded; this is what keeps a run
// from re-writing state the platform already has. Duplicate SKUs in the feed
// collapse last-occurrence-wins before comparison, so the result is unique
// by SKU.
func Diff(current []models.FeedRecord, previous map[string]int64) []models.FeedRecord {
	changes := make([]models.FeedRecord, 0)
	for _, record := range collapse(current) {
		prev, ok := previous[record.SKU]
		if !ok || prev != record.Value {
			changes = append(changes, record)
		}
	}
	return changes
}

// SnapshotValues collapses the current records into the full SKU to value
// map persisted at the end of a run, regardless of which subset changed.
func SnapshotValues(current []models.FeedRecord) map[string]int64 {
	values := make(map[string]int64, len(current))
	for _, record := range current {
		values[record.SKU] = record.Value
	}
	return values
}

// collapse dedupes records by SKU, keeping first-seen order and the last
// occurrence's value.
func collapse(records []models.FeedRecord) []models.FeedRecord {
	index := make(map[string]int, len(records))
	unique := make([]models.FeedRecord, 0, len(records))
	for _, record := range records {
		if i, ok := index[record.SKU]; ok {
			unique[i] = record
			continue
		}
		index[record.SKU] = len(unique)
		unique = append(unique, record)
	}
	return unique
}
