package prompt

import (
	"encoding/json"
	"testing"
)

const runB = `{"run_id":"r1","product_id":"P1","route":"B","best":{"generated":true,"path":"/o.png","source_hash":null,"final_score":0.9},"iterations":1,"candidates":[],"feedback":{"why":["cluttered background"],"required_changes":["neutral studio backdrop"]}}`

func TestReviewLocallySchema(t *testing.T) {
	out, err := ReviewLocally(runB)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		RunID       string   `json:"run_id"`
		Verdict     string   `json:"verdict"`
		Confidence  float64  `json:"confidence"`
		ListingTips []string `json:"listing_tips"`
		ImageFixes  []string `json:"image_fixes"`
		Summary     string   `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.RunID != "r1" || got.Verdict != "use_enhanced" || got.Confidence != 0.9 {
		t.Errorf("unexpected review: %+v", got)
	}
	if len(got.ListingTips) == 0 {
		t.Error("cluttered-background feedback should yield a listing tip")
	}
	if len(got.ImageFixes) != 1 || got.ImageFixes[0] != "neutral studio backdrop" {
		t.Errorf("required changes not carried over: %v", got.ImageFixes)
	}
}

func TestReviewLocallyLowScore(t *testing.T) {
	low := `{"run_id":"r2","route":"C","best":{"final_score":0.2},"iterations":2,"feedback":{"why":[],"required_changes":[]}}`
	out, err := ReviewLocally(low)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Verdict string `json:"verdict"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if got.Verdict != "resubmit" {
		t.Errorf("verdict = %q, want resubmit for low score", got.Verdict)
	}
}

func TestReviewLocallyBadInput(t *testing.T) {
	if _, err := ReviewLocally("nope"); err == nil {
		t.Fatal("expected error for invalid result JSON")
	}
}
