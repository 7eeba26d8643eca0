// Package rewriting turns raw transcripts into rewritten narration
// scripts via the generation backend, one size-bounded chunk at a time.
package rewriting

import (
	"context"
	"fmt"
	"strings"

	"github.com/aman/scriptline/internal/llm"
	"github.com/aman/scriptline/internal/prompts"
)

// RewriteChunk issues one generation call for a single chunk. part and
// total are 1-based; the positional hint is appended only when the item
// has more than one chunk. No retry at this layer: the first failure is
// terminal for the call.
func RewriteChunk(ctx context.Context, client llm.Client, chunkText, instruction string, part, total int) (string, error) {
	prompt := buildRewritePrompt(chunkText, instruction, part, total)

	responseText, err := client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return "", err
	}

	text := llm.CleanCodeBlock(responseText)
	if text == "" {
		return "", fmt.Errorf("backend returned an empty script")
	}
	return text, nil
}

// buildRewritePrompt assembles the rewrite prompt from the embedded
// templates plus the caller's channel instruction.
func buildRewritePrompt(chunkText, instruction string, part, total int) string {
	var sb strings.Builder

	if instruction != "" {
		sb.WriteString(strings.TrimSpace(instruction))
		sb.WriteString("\n\n")
	}

	introTemplate := prompts.MustGet("rewrite.json", "rewrite-intro")
	sb.WriteString(prompts.Format(introTemplate, map[string]string{
		"Transcript": chunkText,
	}))

	sb.WriteString(prompts.MustGet("rewrite.json", "rewrite-rules"))

	if total > 1 {
		hintTemplate := prompts.MustGet("rewrite.json", "rewrite-part-hint")
		sb.WriteString(prompts.Format(hintTemplate, map[string]string{
			"Part":  fmt.Sprintf("%d", part),
			"Total": fmt.Sprintf("%d", total),
		}))
	}

	return sb.String()
}
