// Package provider fetches source video candidates and transcripts from
// the external transcript API. It normalizes the API's several response
// shapes into plain transcript text.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aman/scriptline/internal/types"
)

// DefaultBaseURL is the production transcript API endpoint.
const DefaultBaseURL = "https://api.supadata.ai/v1"

// DefaultTimeout bounds a single API call. Transcript payloads for long
// videos can be several megabytes.
const DefaultTimeout = 60 * time.Second

// Error represents a failure talking to the transcript API.
type Error struct {
	Endpoint string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error for %s: %s: %v", e.Endpoint, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error for %s: %s", e.Endpoint, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Client talks to the transcript API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a provider client. An empty baseURL selects the
// production endpoint.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// channelVideo is one entry in the channel listing response.
type channelVideo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Duration  int    `json:"duration"`
	ViewCount int64  `json:"viewCount"`
}

// ListChannelVideos returns recent uploads for a channel, newest first
// as the API reports them. Transcripts are not fetched here; candidates
// are cheap, transcripts are not.
func (c *Client) ListChannelVideos(ctx context.Context, channelID string, limit int) ([]types.SourceItem, error) {
	endpoint := fmt.Sprintf("%s/youtube/channel/videos?id=%s&limit=%d",
		c.baseURL, url.QueryEscape(channelID), limit)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var result struct {
		Videos []channelVideo `json:"videos"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to decode channel listing", Cause: err}
	}

	items := make([]types.SourceItem, 0, len(result.Videos))
	for _, v := range result.Videos {
		items = append(items, types.SourceItem{
			VideoID:     v.ID,
			Title:       v.Title,
			DurationSec: v.Duration,
			ViewCount:   v.ViewCount,
		})
	}
	return items, nil
}

// transcriptResponse covers the API's response shapes: a segment list
// under "content", a flat "transcript" string, or a flat "text" string.
// Segments may themselves be objects or bare strings.
type transcriptResponse struct {
	Content    json.RawMessage `json:"content"`
	Transcript string          `json:"transcript"`
	Text       string          `json:"text"`
}

type transcriptSegment struct {
	Text string `json:"text"`
}

// FetchTranscript returns the plain transcript text for a video. A video
// with no captions yields an error, not an empty string.
func (c *Client) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	endpoint := fmt.Sprintf("%s/youtube/transcript?videoId=%s&text=true",
		c.baseURL, url.QueryEscape(videoID))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}

	var resp transcriptResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// Mirror endpoints sometimes serve the transcript as an HTML page.
		if strings.HasPrefix(strings.TrimSpace(string(body)), "<") {
			text, htmlErr := ExtractCaptionText(string(body))
			if htmlErr == nil {
				return text, nil
			}
		}
		return "", &Error{Endpoint: endpoint, Message: "failed to decode transcript", Cause: err}
	}

	text := extractTranscriptText(&resp)
	if strings.TrimSpace(text) == "" {
		return "", &Error{Endpoint: endpoint, Message: "no transcript available"}
	}
	return text, nil
}

// extractTranscriptText tries the known payload shapes in order.
func extractTranscriptText(resp *transcriptResponse) string {
	if len(resp.Content) > 0 {
		// "content" is either a plain string or a list of segments.
		var flat string
		if err := json.Unmarshal(resp.Content, &flat); err == nil {
			return flat
		}

		var segments []transcriptSegment
		if err := json.Unmarshal(resp.Content, &segments); err == nil {
			parts := make([]string, 0, len(segments))
			for _, s := range segments {
				if s.Text != "" {
					parts = append(parts, s.Text)
				}
			}
			return strings.Join(parts, " ")
		}

		var raw []string
		if err := json.Unmarshal(resp.Content, &raw); err == nil {
			return strings.Join(raw, " ")
		}
	}
	if resp.Transcript != "" {
		return resp.Transcript
	}
	return resp.Text
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		detail := strings.TrimSpace(string(body))
		if len(detail) > 200 {
			cut := 200
			// Cut on a rune boundary so multi-byte characters survive.
			for cut > 0 && !utf8.RuneStart(detail[cut]) {
				cut--
			}
			detail = detail[:cut]
		}
		return nil, &Error{Endpoint: endpoint, Message: fmt.Sprintf("HTTP status %d: %s", resp.StatusCode, detail)}
	}
	return body, nil
}
