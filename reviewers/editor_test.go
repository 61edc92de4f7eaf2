package reviewers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestParseEditorResponseDirectJSON(t *testing.T) {
	raw := `{"final_decision": "accept", "decision_letter": "Dear authors, congratulations."}`
	decision, letter := ParseEditorResponse(raw)

	if decision != "accept" {
		t.Errorf("decision = %q, want accept", decision)
	}
	if letter != "Dear authors, congratulations." {
		t.Errorf("unexpected letter: %q", letter)
	}
}

func TestParseEditorResponseFenced(t *testing.T) {
	raw := "```json\n{\"final_decision\": \"reject\", \"decision_letter\": \"Unfortunately...\"}\n```"
	decision, _ := ParseEditorResponse(raw)
	if decision != "reject" {
		t.Errorf("decision = %q, want reject", decision)
	}
}

func TestParseEditorResponseExtractsEmbeddedObject(t *testing.T) {
	raw := `After weighing all reviews carefully, here is my decision:
{"final_decision": "minor_revision", "decision_letter": "Please address the comments."}
I hope this helps.`
	decision, letter := ParseEditorResponse(raw)

	if decision != "minor_revision" {
		t.Errorf("decision = %q, want minor_revision", decision)
	}
	if letter != "Please address the comments." {
		t.Errorf("unexpected letter: %q", letter)
	}
}

func TestParseEditorResponseFallback(t *testing.T) {
	raw := "The manuscript shows promise but needs substantial work."
	decision, letter := ParseEditorResponse(raw)

	if decision != "major_revision" {
		t.Errorf("fallback decision = %q, want major_revision", decision)
	}
	if letter != raw {
		t.Error("fallback must return the raw response as decision letter")
	}
}

func TestParseEditorResponseMissingFields(t *testing.T) {
	raw := `{"decision_letter": "A letter without a decision."}`
	decision, _ := ParseEditorResponse(raw)
	if decision != "major_revision" {
		t.Errorf("missing final_decision must default to major_revision, got %q", decision)
	}

	raw = `{"final_decision": "accept"}`
	_, letter := ParseEditorResponse(raw)
	if letter != raw {
		t.Error("missing decision_letter must fall back to the raw response")
	}
}

func TestEditorDecideTagsReviewerTiers(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"final_decision\":\"accept\",\"decision_letter\":\"Congratulations.\"}"}}]}`))
	}))
	defer server.Close()

	e := &Editor{
		client: NewChatClient(server.URL, "test-key", "test-model", zap.NewNop()),
		logger: zap.NewNop(),
	}

	reviews := []TaggedReview{
		{ReviewerName: "The Logician", Result: &ReviewResult{Decision: "accept", Strengths: []string{"s"}, Weaknesses: []string{"w"}}},
		{ReviewerName: "[Associate Reviewer] Ada", Associate: true, Result: &ReviewResult{Decision: "reject", Strengths: []string{"s"}, Weaknesses: []string{"w"}}},
	}

	decision, letter, err := e.Decide(context.Background(), "A Title", "An abstract.", reviews)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if decision != "accept" || letter != "Congratulations." {
		t.Errorf("got (%q, %q), want (accept, Congratulations.)", decision, letter)
	}

	body := string(gotBody)
	if !strings.Contains(body, "[SENIOR STAFF REVIEWER]") {
		t.Error("request must tag staff reviewers as senior staff")
	}
	if !strings.Contains(body, "[COMMUNITY ASSOCIATE REVIEWER]") {
		t.Error("request must tag associate reviewers as community associates")
	}
}

func TestEditorDecidePropagatesBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	e := &Editor{
		client: NewChatClient(server.URL, "k", "m", zap.NewNop()),
		logger: zap.NewNop(),
	}
	if _, _, err := e.Decide(context.Background(), "T", "A", nil); err == nil {
		t.Fatal("backend failure must surface as an error")
	}
}
