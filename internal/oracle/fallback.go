package oracle

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

// similarityFloor is the minimum character-set similarity for the fallback
// matcher to propose a source field at all.
const similarityFloor = 0.3

// Fallback is a deterministic, offline stand-in for the model oracle. It is
// used on its own when no API key is configured and as the degradation path
// inside the Gemini client when a matching call fails.
type Fallback struct{}

// NewFallback creates the deterministic fallback oracle.
func NewFallback() *Fallback {
	return &Fallback{}
}

// MatchFields scores every source field against every target field by
// character-set similarity of their names and keeps the best candidate per
// target if it clears the floor. Never fails.
func (f *Fallback) MatchFields(_ context.Context, source []schema.SourceField, target []schema.TargetField) ([]MatchResult, error) {
	results := make([]MatchResult, 0, len(target))
	for _, tf := range target {
		var best string
		var bestScore float64
		for _, sf := range source {
			score := similarity(strings.ToLower(tf.Name), strings.ToLower(sf.Name))
			if score > bestScore {
				bestScore = score
				best = sf.UniqueID
			}
		}

		r := MatchResult{
			TargetFieldID:   tf.ID,
			MatchConfidence: int(math.Round(bestScore * 100)),
		}
		if bestScore > similarityFloor {
			r.SourceFieldID = best
		}
		results = append(results, r)
	}
	return results, nil
}

// GenerateRule has no offline equivalent; the failure is surfaced so the
// caller keeps the original rule description untouched.
func (f *Fallback) GenerateRule(_ context.Context, _ string, _ []schema.SourceField) (string, error) {
	return "", fmt.Errorf("rule generation requires a configured model API key")
}

// SummarizeFile returns a placeholder digest.
func (f *Fallback) SummarizeFile(_ context.Context, _ string, _ []map[string]any) (Summary, error) {
	return Summary{
		Provider:  "未知",
		Period:    "未知",
		Currency:  "未知",
		Anomalies: "无法自动分析，请手动检查",
	}, nil
}

// ParseTemplate turns the raw headers into Text fields one-to-one.
func (f *Fallback) ParseTemplate(_ context.Context, fileName string, headers []string, _ []map[string]any) (ParsedTemplate, error) {
	now := time.Now().UnixMilli()
	fields := make([]schema.TargetField, len(headers))
	for i, h := range headers {
		fields[i] = schema.TargetField{
			ID:   fmt.Sprintf("target-%d-%d", now, i),
			Name: h,
			Type: schema.TargetText,
			Icon: "text_fields",
		}
	}
	return ParsedTemplate{
		Fields:       fields,
		TemplateName: trimExt(fileName),
	}, nil
}

// similarity is the Jaccard index over the rune sets of the two names.
// Crude, but it separates "金额" from "发票号" well enough to seed a mapping
// the user then confirms.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	setA := runeSet(a)
	setB := runeSet(b)

	var intersection int
	for r := range setA {
		if _, ok := setB[r]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

func trimExt(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
