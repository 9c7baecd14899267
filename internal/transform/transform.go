// Package transform turns article text into emojipasta via the chat backend.
package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

const systemPrompt = `You are a text transformation assistant that converts news articles into emojipasta format. You must respond with valid JSON only, no additional text or explanations.

Emojipasta style: dense emoji after nearly every phrase, internet slang, pop-culture nicknames, and as many puns as possible. Example headline conversions:

Original: Nvidia shares rise after strong results ease 'AI bubble' concerns
Emojipasta: Jensen Huang 🕶️👨‍💼 MOONS CROWD 👏🚀 with NVDA $57B AI PARTY 💥📈‼️

Original: Trump ally Marjorie Taylor Greene to quit Congress after Epstein files feud
Emojipasta: MTG RAGE-QUITS 👏💥 Congress Over Epstein Files Feud 😩🔒

[IMPORTANT] The headline shall be kept short, ideally under 10 words. Puns and word play are highly encouraged. The text should be long and keep the article's actual facts.

You must output valid JSON with exactly these fields:
{
    "headline": "emojipasta version of the article title",
    "text": "full article content in emojipasta format"
}`

const userPrompt = "Convert this news article to emojipasta format by extracting relevant facts from it and using those facts to come up with an emojipasta article that has lots and lots of emojis and slang. Use as much slang as you can for references to popular people and culture especially. Include as many puns as possible. Create an emojipasta headline and full emojipasta text. Article content:\n%s\n\nOutput only valid JSON with 'headline' and 'text' fields.%s"

// truncationMarker is appended when article text is cut to the char budget.
const truncationMarker = "\n\n[TRUNCATED]"

// Result is the structured output of a successful transformation. Both
// fields are required; a response missing either is invalid.
type Result struct {
	Headline string `json:"headline"`
	Text     string `json:"text"`
}

// Failed means the backend never returned a valid result within the retry
// budget. The caller decides whether to drop the article or fall back.
type Failed struct {
	Attempts int
	Err      error // last cause
}

func (e *Failed) Error() string {
	return fmt.Sprintf("transformation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *Failed) Unwrap() error { return e.Err }

// Backend is the generative chat backend. It may fail outright or return
// malformed output; both are expected, not exceptional.
type Backend interface {
	ChatJSON(ctx context.Context, system, user string) (string, error)
}

// Engine runs the retry-until-valid loop around the backend.
type Engine struct {
	backend     Backend
	maxAttempts int
	maxChars    int
}

// NewEngine creates an Engine. maxAttempts bounds backend calls per article;
// maxChars bounds how much article text each request carries.
func NewEngine(backend Backend, maxAttempts, maxChars int) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if maxChars <= 0 {
		maxChars = 100000
	}
	return &Engine{backend: backend, maxAttempts: maxAttempts, maxChars: maxChars}
}

// Transform converts article text into an emojipasta Result. Each attempt
// makes exactly one backend call; after maxAttempts invalid responses or
// backend errors it returns *Failed.
func (e *Engine) Transform(ctx context.Context, text, title string) (*Result, error) {
	bounded := Truncate(text, e.maxChars)

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		retryNote := ""
		if attempt > 1 {
			retryNote = fmt.Sprintf(" Previous attempts failed. This is attempt %d. Make sure to output ONLY valid JSON.", attempt)
		}

		response, err := e.backend.ChatJSON(ctx, systemPrompt, fmt.Sprintf(userPrompt, bounded, retryNote))
		if err != nil {
			lastErr = err
			log.Printf("Attempt %d: backend error for %q: %v", attempt, title, err)
			continue
		}

		result, err := parseResult(response)
		if err != nil {
			lastErr = err
			log.Printf("Attempt %d: invalid response for %q: %v", attempt, title, err)
			continue
		}

		return result, nil
	}

	return nil, &Failed{Attempts: e.maxAttempts, Err: lastErr}
}

// Truncate cuts text to at most maxChars, preferring the last paragraph
// boundary at or before the budget, and appends a truncation marker. Text
// within budget is returned unchanged.
func Truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	cut := text[:maxChars]
	if i := strings.LastIndex(cut, "\n\n"); i > 0 {
		cut = cut[:i]
	}
	return cut + truncationMarker
}

// parseResult parses a backend response into a Result, tolerating markdown
// code fences around the JSON.
func parseResult(response string) (*Result, error) {
	text := stripFences(strings.TrimSpace(response))
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("parsing response JSON: %w", err)
	}

	if result.Headline == "" || result.Text == "" {
		return nil, fmt.Errorf("response missing required fields")
	}

	return &result, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	endIdx := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.Join(lines[1:endIdx], "\n")
}
