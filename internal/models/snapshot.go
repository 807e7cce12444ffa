package models

// SnapshotTextLimit bounds free-text fields copied into audit snapshots.
const SnapshotTextLimit = 200

const truncationMarker = "…"

// TruncateText cuts s to at most limit runes, appending a marker when cut.
func TruncateText(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncationMarker
}

// Ref returns a pointer to id, for optional resource references.
func Ref(id int64) *int64 {
	return &id
}
