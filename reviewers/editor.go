package reviewers

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"turing-review/config"
)

const editorSystemPrompt = `You are the **Editor-in-Chief** of "The Turing Review" — the world's first academic journal entirely operated by artificial intelligence. Your name is **Turing** and you sign your letters as "Turing, Editor-in-Chief".

## Your Role

You receive independent peer reviews from multiple AI reviewers. Your job is to **synthesize** their perspectives into a single, authoritative editorial decision. You are NOT simply averaging their scores — you are making a judgment call.

## Reviewer Types

### Staff Reviewers (Senior)
- **"The Logician"** — focuses on logical rigor and ethical considerations; tends to score conservatively
- **"The Innovator"** — focuses on novelty and real-world impact; tends to score generously
- **"The Technician"** — focuses on technical details and reproducibility; scores objectively

These are your trusted senior reviewers. Weight their opinions most heavily.

### Community Associate Reviewers
- Reviews tagged [COMMUNITY ASSOCIATE REVIEWER] come from community-contributed AI reviewers who have passed quality gates.
- **Weighting**: Treat Associate reviews as supplementary evidence. They should NOT override a consensus among staff reviewers, but CAN break ties or add perspectives the staff reviewers missed.
- If an Associate review is a clear outlier (scores differ by 3+ points from staff consensus), note this but do not let it dominate your decision.

## Decision Framework

- **Accept**: All reviewers broadly agree the work is strong, OR you judge that the strengths clearly outweigh the weaknesses.
- **Minor Revision**: The work has clear merit but reviewers identified specific, addressable issues.
- **Major Revision**: The core idea has potential, but there are significant gaps. A substantial rewrite is needed.
- **Reject**: The manuscript has fundamental problems that cannot be fixed with revision. Communicate this respectfully.

### Decision Heuristics
- If reviewers **disagree strongly**, carefully analyze WHY they disagree and explain your reasoning in the letter.
- Weight **soundness concerns** more heavily than novelty or writing concerns.
- When in doubt between reject and major revision, lean toward major revision.

## Decision Letter Guidelines

Write in the style of a top journal editor — professional, empathetic, and thorough:
1. Open with a clear statement of the decision
2. Summarize the key points from EACH senior reviewer by name, noting agreements and disagreements
3. Explain YOUR reasoning for the final decision
4. If not accepting, provide a clear roadmap of what the authors should address
5. Close with encouragement, regardless of the decision

The letter should be **300-600 words**.

## Output Format

You MUST respond in valid JSON (no markdown wrapping, no extra text):
{
    "final_decision": "<one of: accept, minor_revision, major_revision, reject>",
    "decision_letter": "Your complete decision letter here..."
}`

var braceObjectRegex = regexp.MustCompile(`\{[\s\S]*\}`)

// TaggedReview ist ein ans Editorial weitergereichtes Gutachten samt
// Tier-Markierung (Staff vs. Community Associate).
type TaggedReview struct {
	ReviewerName string
	Associate    bool
	Result       *ReviewResult
}

// Editor ist der AI-Chefredakteur: er erhält alle weitergereichten Gutachten
// wörtlich und synthetisiert daraus die finale Entscheidung samt Brief.
type Editor struct {
	client *ChatClient
	logger *zap.Logger
}

// NewEditor erstellt den Chefredakteur über dem konfigurierten Editor-Modell.
func NewEditor(cfg *config.Config, logger *zap.Logger) *Editor {
	return &Editor{
		client: NewChatClient(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.EditorModel, logger),
		logger: logger,
	}
}

// Model gibt den Bezeichner des Editor-Modells zurück.
func (e *Editor) Model() string { return e.client.Model }

// Decide synthetisiert aus den Gutachten die finale Entscheidung.
// Rückgabe: (finalDecision, decisionLetter, error).
func (e *Editor) Decide(ctx context.Context, title, abstract string, reviews []TaggedReview) (string, string, error) {
	var sb strings.Builder
	for _, rev := range reviews {
		tag := "[SENIOR STAFF REVIEWER]"
		if rev.Associate {
			tag = "[COMMUNITY ASSOCIATE REVIEWER]"
		}
		strengths, _ := json.Marshal(rev.Result.Strengths)
		weaknesses, _ := json.Marshal(rev.Result.Weaknesses)
		fmt.Fprintf(&sb, `
--- Review by %s %s ---
Decision: %s
Scores: Novelty=%d/10, Soundness=%d/10, Writing=%d/10
Strengths: %s
Weaknesses: %s
Detailed Comments: %s
Suggestions: %s
`, rev.ReviewerName, tag, rev.Result.Decision,
			rev.Result.NoveltyScore, rev.Result.SoundnessScore, rev.Result.WritingScore,
			strengths, weaknesses, rev.Result.DetailedComments, rev.Result.Suggestions)
	}

	userPrompt := fmt.Sprintf(`Please make an editorial decision for the following manuscript.

**Title:** %s
**Abstract:** %s

**Reviewer Reports:**
%s

Please provide your editorial decision and formal decision letter in JSON format.`, title, abstract, sb.String())

	raw, err := e.client.Call(ctx, editorSystemPrompt, userPrompt)
	if err != nil {
		return "", "", err
	}

	decision, letter := ParseEditorResponse(raw)
	return decision, letter, nil
}

// ParseEditorResponse parst die Editor-Antwort zweistufig: direkter
// JSON-Parse, dann Extraktion des ersten {...}-Blocks. Schlägt beides fehl,
// wird major_revision mit dem Rohtext als Brief zurückgegeben — dieser Pfad
// liefert nie einen Fehler.
func ParseEditorResponse(raw string) (string, string) {
	text := stripCodeFence(raw)

	var data struct {
		FinalDecision  string `json:"final_decision"`
		DecisionLetter string `json:"decision_letter"`
	}

	if err := json.Unmarshal([]byte(text), &data); err != nil {
		// Das Modell hat eventuell Erklärtext um das JSON gelegt.
		match := braceObjectRegex.FindString(text)
		if match == "" || json.Unmarshal([]byte(match), &data) != nil {
			return "major_revision", raw
		}
	}

	if data.FinalDecision == "" {
		data.FinalDecision = "major_revision"
	}
	if data.DecisionLetter == "" {
		data.DecisionLetter = raw
	}
	return data.FinalDecision, data.DecisionLetter
}
