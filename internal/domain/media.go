package domain

// MediaItem identifies one playable item. It is opaque to the room engine
// beyond identity and is never mutated after creation.
type MediaItem struct {
	ExternalId    string `json:"external_id"`
	Title         string `json:"title"`
	ThumbnailUrl  string `json:"thumbnail_url"`
	SourceChannel string `json:"source_channel"`
}
