package types

// Priority tiers for queue jobs. The queue drains higher values first.
const (
	PriorityNormal = 0
	PriorityHigh   = 1
)

// JobRecord is the payload handed to the media-synthesis queue once a
// script is ready. Ownership passes to the queue on submission; the caller
// generates a fresh JobID per attempt because the queue does not
// deduplicate.
type JobRecord struct {
	JobID         string `json:"job_id"`
	ScriptText    string `json:"script_text"`
	ChannelCode   string `json:"channel_code"`
	VideoNumber   int    `json:"video_number"`
	Date          string `json:"date"`
	Priority      int    `json:"priority"`
	AudioCounter  int    `json:"audio_counter"`
	OrganizedPath string `json:"organized_path"`
	Username      string `json:"username"`
	RefAudio      string `json:"ref_audio,omitempty"`
	SourceVideoID string `json:"source_video_id"`
}
