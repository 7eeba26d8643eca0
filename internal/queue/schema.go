package queue

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// jobSchema is the wire contract for an audio job. The queue host
// rejects malformed payloads with an opaque 400; validating here turns
// that into an actionable error before the job ID is spent.
const jobSchema = `{
	"type": "object",
	"required": ["job_id", "script_text", "channel_code", "video_number", "date", "priority", "audio_counter", "organized_path", "username", "source_video_id"],
	"properties": {
		"job_id": {"type": "string", "minLength": 1},
		"script_text": {"type": "string", "minLength": 1},
		"channel_code": {"type": "string", "minLength": 1},
		"video_number": {"type": "integer", "minimum": 1},
		"date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
		"priority": {"type": "integer", "enum": [0, 1]},
		"audio_counter": {"type": "integer", "minimum": 1},
		"organized_path": {"type": "string", "minLength": 1},
		"username": {"type": "string", "minLength": 1},
		"ref_audio": {"type": "string"},
		"source_video_id": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

var compiledJobSchema *gojsonschema.Schema

func init() {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(jobSchema))
	if err != nil {
		panic(fmt.Sprintf("invalid job schema: %v", err))
	}
	compiledJobSchema = schema
}

// ValidateJobPayload checks an encoded job against the wire contract.
func ValidateJobPayload(payload []byte) error {
	result, err := compiledJobSchema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("job payload violates schema: %s", strings.Join(problems, "; "))
}
