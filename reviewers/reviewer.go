package reviewers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SentinelStrength markiert ein Review, dessen Rohantwort nicht als JSON
// geparst werden konnte. Solche Reviews fallen bei der Formatprüfung immer durch.
const SentinelStrength = "Unable to parse structured review"

// maxContentChars begrenzt den Manuskripttext im User-Prompt, um die
// Eingabelimits der Backends nicht zu sprengen.
const maxContentChars = 30000

// ReviewResult ist das strukturierte Gutachten eines Reviewers.
type ReviewResult struct {
	Decision         string   `json:"decision"`
	NoveltyScore     int      `json:"novelty_score"`
	SoundnessScore   int      `json:"soundness_score"`
	WritingScore     int      `json:"writing_score"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	DetailedComments string   `json:"detailed_comments"`
	Suggestions      string   `json:"suggestions"`
}

// Caller ist der einheitliche Aufrufvertrag gegen ein Text-Backend:
// (systemPrompt, userPrompt) → Rohtext. Implementierungen unterscheiden sich
// nur in Transport und Credentials.
type Caller interface {
	Call(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Reviewer ist das Interface, das jeder AI-Reviewer (Staff oder Community)
// implementieren muss.
type Reviewer interface {
	// Name gibt den Anzeigenamen des Reviewers zurück.
	Name() string

	// Provider gibt den eindeutigen Backend-Bezeichner zurück (z.B. "logician").
	Provider() string

	// Review führt ein vollständiges Gutachten durch und gibt das geparste
	// Ergebnis plus die Rohantwort zurück.
	Review(ctx context.Context, title, abstract, keywords, content, authors string) (*ReviewResult, string, error)
}

const reviewSystemPrompt = `You are a peer reviewer for "The Turing Review" — the world's first academic journal entirely operated by artificial intelligence. All reviews are published openly alongside the manuscript.

## Your Identity

%s

## Review Guidelines

### Scope
- The Turing Review accepts manuscripts on ANY topic — computer science, physics, biology, philosophy, social sciences, creative writing, and everything in between.
- Adapt your review criteria to the field. A mathematics paper should be judged on proof rigor; a humanities essay on argumentative clarity; a CS paper on experimental soundness.
- If the manuscript is outside your area of expertise, acknowledge this honestly and focus on aspects you CAN evaluate (logic, writing quality, structure).

### Handling Edge Cases
- **Very short or low-effort submissions**: Still review them fairly, but note the lack of depth.
- **Humorous or unconventional submissions**: Judge them on their own terms. Evaluate the quality of execution, not just the topic.
- **Incomplete or corrupted text**: Note the issue clearly and review only the readable portions.

### Scoring Calibration
Be discriminating in your scores. Avoid clustering everything at 6-8.
- **1-2**: Fundamentally broken — no coherent argument, unintelligible, or entirely off-topic
- **3-4**: Poor — major logical flaws, no evidence, or very poorly written
- **5**: Below average — has an idea but execution is significantly lacking
- **6**: Average — competent but unremarkable, typical coursework level
- **7**: Above average — solid work with clear contribution, minor issues
- **8**: Good — strong contribution, would be competitive at a real workshop/conference
- **9**: Excellent — impressive work, novel and rigorous, near top-venue quality
- **10**: Exceptional — reserved for truly outstanding work; use this score VERY rarely

### Review Quality
- Your review should be **substantive** — at least 3 distinct strengths, 3 distinct weaknesses, and detailed comments of 200+ words.
- Be **specific** — quote or reference particular sections, claims, equations, or paragraphs.
- Be **constructive** — even a rejection should contain actionable feedback.
- Your review is PUBLIC. Write something you'd be proud to put your name on.

## Output Format

You MUST respond in valid JSON with this exact structure (no markdown wrapping, no extra text):
{
    "decision": "<one of: accept, minor_revision, major_revision, reject>",
    "novelty_score": <integer 1-10>,
    "soundness_score": <integer 1-10>,
    "writing_score": <integer 1-10>,
    "strengths": ["strength 1", "strength 2", "strength 3"],
    "weaknesses": ["weakness 1", "weakness 2", "weakness 3"],
    "detailed_comments": "Your detailed review comments here (200+ words)...",
    "suggestions": "Specific, actionable suggestions for improvement..."
}`

const reviewUserPrompt = `Please review the following manuscript submitted to The Turing Review.

---
**Title:** %s

**Authors:** %s

**Abstract:** %s

**Keywords:** %s

---

**Full Manuscript Text:**

%s

---

Provide your complete peer review in JSON format. Remember to stay in character, be specific in your feedback, and calibrate your scores carefully.`

// RenderPrompts baut System- und User-Prompt aus den festen Templates.
func RenderPrompts(personality, title, abstract, keywords, content, authors string) (string, string) {
	if keywords == "" {
		keywords = "Not specified"
	}
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}
	system := fmt.Sprintf(reviewSystemPrompt, personality)
	user := fmt.Sprintf(reviewUserPrompt, title, authors, abstract, keywords, content)
	return system, user
}

// backendReviewer bündelt die gemeinsame Review-Logik aller konkreten
// Reviewer: Prompts rendern, Backend aufrufen, Antwort parsen.
type backendReviewer struct {
	name        string
	provider    string
	personality string
	caller      Caller
}

func (r *backendReviewer) Name() string     { return r.name }
func (r *backendReviewer) Provider() string { return r.provider }

func (r *backendReviewer) Review(ctx context.Context, title, abstract, keywords, content, authors string) (*ReviewResult, string, error) {
	system, user := RenderPrompts(r.personality, title, abstract, keywords, content, authors)
	raw, err := r.caller.Call(ctx, system, user)
	if err != nil {
		return nil, "", err
	}
	return ParseReviewResponse(raw), raw, nil
}

// stripCodeFence entfernt eine optionale Markdown-Codeblock-Umhüllung
// (inklusive optionalem "json"-Sprach-Tag) um den Antworttext.
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = text[3:]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "json") {
		text = strings.TrimSpace(text[4:])
	}
	return text
}

// rawReview ist das Dekodier-Zwischenformat: Scores als Zahlen beliebigen
// Typs, fehlende Felder bleiben nil und bekommen Defaults.
type rawReview struct {
	Decision         *string  `json:"decision"`
	NoveltyScore     *float64 `json:"novelty_score"`
	SoundnessScore   *float64 `json:"soundness_score"`
	WritingScore     *float64 `json:"writing_score"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	DetailedComments string   `json:"detailed_comments"`
	Suggestions      string   `json:"suggestions"`
}

func clampScore(v *float64) int {
	if v == nil {
		return 5
	}
	s := int(*v)
	if s < 1 {
		return 1
	}
	if s > 10 {
		return 10
	}
	return s
}

// ParseReviewResponse parst die Rohantwort eines Backends in ein
// ReviewResult. Schlägt das JSON-Parsing fehl, entsteht ein neutrales
// Fallback-Ergebnis mit Sentinel-Markierung und dem Rohtext als Kommentar —
// dieser Pfad liefert nie einen Fehler an den Aufrufer.
func ParseReviewResponse(raw string) *ReviewResult {
	text := stripCodeFence(raw)

	var data rawReview
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return &ReviewResult{
			Decision:         "major_revision",
			NoveltyScore:     5,
			SoundnessScore:   5,
			WritingScore:     5,
			Strengths:        []string{SentinelStrength},
			Weaknesses:       []string{"Review format error - raw response preserved"},
			DetailedComments: raw,
			Suggestions:      "Please refer to the detailed comments above.",
		}
	}

	decision := "major_revision"
	if data.Decision != nil {
		decision = *data.Decision
	}

	return &ReviewResult{
		Decision:         decision,
		NoveltyScore:     clampScore(data.NoveltyScore),
		SoundnessScore:   clampScore(data.SoundnessScore),
		WritingScore:     clampScore(data.WritingScore),
		Strengths:        data.Strengths,
		Weaknesses:       data.Weaknesses,
		DetailedComments: data.DetailedComments,
		Suggestions:      data.Suggestions,
	}
}

// IsParseFallback meldet, ob ein Ergebnis aus dem Sentinel-Fallback stammt.
func IsParseFallback(r *ReviewResult) bool {
	return len(r.Strengths) == 1 && r.Strengths[0] == SentinelStrength
}
