// Package types defines the shared data model for the script pipeline.
package types

// SourceItem is one unit of input text (a video transcript) eligible for
// the pipeline. Immutable once fetched from the provider.
type SourceItem struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Text        string `json:"text,omitempty"`
	DurationSec int    `json:"duration_sec"`
	ViewCount   int64  `json:"view_count"`
	ChannelCode string `json:"channel_code"`
}

// HasText reports whether the item's transcript has been fetched.
func (s *SourceItem) HasText() bool {
	return s.Text != ""
}
