package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Local is an offline reviewer wired when no AI provider is configured.
type Local struct{}

func (Local) Review(_ context.Context, resultJSON string) (string, error) {
	return ReviewLocally(resultJSON)
}

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior e-commerce catalog consultant. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- verdict must be one of: keep_original, use_enhanced, use_generated, resubmit.
- listing_tips is an array of short, actionable strings for the seller.
- image_fixes is an array of concrete retouch/reshoot suggestions; may be empty.
- Base your advice only on the run result provided; do not invent scores.

Schema (example with empty values):
{
  "run_id": "<string>",
  "verdict": "<keep_original|use_enhanced|use_generated|resubmit>",
  "confidence": 0.0,
  "listing_tips": ["<string>"],
  "image_fixes": ["<string>"],
  "summary": "<string>"
}`
}

// GetUserPrompt builds a compact user message around a run result.
func GetUserPrompt(resultJSON string) string {
	return fmt.Sprintf("Review this catalog image analysis result and respond with the JSON per schema. Result: %s", resultJSON)
}

// reviewOutput matches the schema used by the system prompt.
type reviewOutput struct {
	RunID       string   `json:"run_id"`
	Verdict     string   `json:"verdict"`
	Confidence  float64  `json:"confidence"`
	ListingTips []string `json:"listing_tips"`
	ImageFixes  []string `json:"image_fixes"`
	Summary     string   `json:"summary"`
}

// ReviewLocally derives schema-conforming advice from the run result without
// any network call. Used when no AI provider is configured.
func ReviewLocally(resultJSON string) (string, error) {
	var res struct {
		RunID string `json:"run_id"`
		Route string `json:"route"`
		Best  struct {
			FinalScore float64 `json:"final_score"`
		} `json:"best"`
		Iterations int `json:"iterations"`
		Feedback   struct {
			Why             []string `json:"why"`
			RequiredChanges []string `json:"required_changes"`
		} `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(resultJSON), &res); err != nil {
		return "", fmt.Errorf("parse run result: %w", err)
	}

	out := reviewOutput{
		RunID:       res.RunID,
		Confidence:  res.Best.FinalScore,
		ListingTips: []string{},
		ImageFixes:  []string{},
	}

	switch res.Route {
	case "A":
		out.Verdict = "keep_original"
		out.Summary = "An uploaded photo already meets the marketplace bar; publish it as the feed cover."
	case "B":
		out.Verdict = "use_enhanced"
		out.Summary = fmt.Sprintf("The retouched candidate from %d iteration(s) scored best; use it as the feed cover.", res.Iterations)
	case "C":
		out.Verdict = "use_generated"
		out.Summary = "No upload was usable; a composed studio image was produced instead."
	default:
		out.Verdict = "resubmit"
		out.Summary = "The run did not produce a usable cover image."
	}

	if res.Best.FinalScore < 0.5 {
		out.Verdict = "resubmit"
		out.ListingTips = append(out.ListingTips, "Upload sharper, well-lit photos of the product on a plain background.")
	}
	for _, why := range res.Feedback.Why {
		if tip := tipFor(why); tip != "" {
			out.ListingTips = append(out.ListingTips, tip)
		}
	}
	for _, change := range res.Feedback.RequiredChanges {
		out.ImageFixes = append(out.ImageFixes, change)
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func tipFor(reason string) string {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "blur"), strings.Contains(lower, "sharp"):
		return "Shoot with more light or a steadier camera to avoid blur."
	case strings.Contains(lower, "background"), strings.Contains(lower, "clutter"):
		return "Use a neutral, uncluttered background for the cover photo."
	case strings.Contains(lower, "crop"), strings.Contains(lower, "frame"):
		return "Center the product and leave margin on all sides."
	case strings.Contains(lower, "light"), strings.Contains(lower, "dark"), strings.Contains(lower, "exposure"):
		return "Improve lighting; avoid harsh shadows and underexposure."
	case strings.Contains(lower, "relevance"), strings.Contains(lower, "cover"):
		return "Make the first image show the full product clearly, front-on."
	}
	return ""
}
