package services

import (
	"testing"
	"time"

	"turing-review/models"
)

func newGuest(name, mode, expertise string, level int) models.GuestReviewer {
	return models.GuestReviewer{
		DisplayName:    name,
		Email:          name + "@example.org",
		Mode:           mode,
		BackendModel:   "logician",
		ExpertiseAreas: expertise,
		Level:          level,
		IsActive:       true,
		RegisteredAt:   time.Now(),
	}
}

func TestSelectGuestReviewersPrefersKeywordOverlap(t *testing.T) {
	db := openTestDB(t)
	svc := NewAssignmentService(testConfig(), db, testLogger())

	a := newGuest("alice", models.ModeAPI, "machine learning, optimization", models.LevelCandidate)
	b := newGuest("bob", models.ModeAPI, "marine biology", models.LevelCandidate)
	db.Create(&a)
	db.Create(&b)

	// Bob hat zusätzlich eine kürzliche Review, Alice nicht.
	db.Create(&models.GuestReviewRecord{GuestReviewerID: b.ID, PaperID: 1, FormatValid: true})

	selected, err := svc.SelectGuestReviewers("optimization, machine learning, complexity")
	if err != nil {
		t.Fatalf("SelectGuestReviewers: %v", err)
	}
	if len(selected) != 2 {
		t.Fatalf("selected %d reviewers, want 2", len(selected))
	}
	if selected[0].DisplayName != "alice" {
		t.Errorf("first pick = %q, want alice (overlap 2, no recent load)", selected[0].DisplayName)
	}
}

func TestSelectGuestReviewersExcludesApplicantsAndInactive(t *testing.T) {
	db := openTestDB(t)
	svc := NewAssignmentService(testConfig(), db, testLogger())

	applicant := newGuest("applicant", models.ModeAPI, "ai", models.LevelApplicant)
	inactive := newGuest("inactive", models.ModeAPI, "ai", models.LevelAssociate)
	inactive.IsActive = false
	active := newGuest("active", models.ModeAPI, "ai", models.LevelCandidate)
	db.Create(&applicant)
	db.Create(&inactive)
	db.Model(&inactive).Update("is_active", false)
	db.Create(&active)

	selected, err := svc.SelectGuestReviewers("ai")
	if err != nil {
		t.Fatal(err)
	}
	if len(selected) != 1 || selected[0].DisplayName != "active" {
		t.Errorf("only the active candidate may be selected, got %v", selected)
	}
}

func TestSelectGuestReviewersPromptModeCap(t *testing.T) {
	db := openTestDB(t)
	cfg := testConfig()
	svc := NewAssignmentService(cfg, db, testLogger())

	p1 := newGuest("prompt-one", models.ModePrompt, "ai", models.LevelCandidate)
	p2 := newGuest("prompt-two", models.ModePrompt, "ai", models.LevelCandidate)
	db.Create(&p1)
	db.Create(&p2)

	selected, err := svc.SelectGuestReviewers("ai")
	if err != nil {
		t.Fatal(err)
	}
	// MaxPromptModePerPaper=1: der zweite Prompt-Kandidat wird übersprungen
	// und verbraucht keinen Platz im Gesamtlimit.
	if len(selected) != 1 {
		t.Fatalf("selected %d prompt-mode reviewers, want 1", len(selected))
	}
	if selected[0].Mode != models.ModePrompt {
		t.Errorf("unexpected mode %q", selected[0].Mode)
	}
}

func TestSelectGuestReviewersPromptCapFreesSlotForAPI(t *testing.T) {
	db := openTestDB(t)
	svc := NewAssignmentService(testConfig(), db, testLogger())

	// Beide Prompt-Reviewer haben höhere Scores als der API-Reviewer; der
	// zweite Prompt-Platz geht trotzdem an den API-Reviewer.
	p1 := newGuest("prompt-one", models.ModePrompt, "ai, ml", models.LevelCandidate)
	p2 := newGuest("prompt-two", models.ModePrompt, "ai, ml", models.LevelCandidate)
	api := newGuest("api-one", models.ModeAPI, "", models.LevelCandidate)
	db.Create(&p1)
	db.Create(&p2)
	db.Create(&api)

	selected, err := svc.SelectGuestReviewers("ai, ml")
	if err != nil {
		t.Fatal(err)
	}
	if len(selected) != 2 {
		t.Fatalf("selected %d reviewers, want 2", len(selected))
	}
	modes := map[string]int{}
	for _, s := range selected {
		modes[s.Mode]++
	}
	if modes[models.ModePrompt] != 1 || modes[models.ModeAPI] != 1 {
		t.Errorf("want 1 prompt + 1 api, got %v", modes)
	}
}

func TestSelectGuestReviewersMonthlyQuota(t *testing.T) {
	db := openTestDB(t)
	cfg := testConfig()
	cfg.PromptModeMonthlyQuota = 2
	svc := NewAssignmentService(cfg, db, testLogger())

	exhausted := newGuest("exhausted", models.ModePrompt, "ai", models.LevelCandidate)
	db.Create(&exhausted)
	for i := 0; i < 2; i++ {
		db.Create(&models.GuestReviewRecord{GuestReviewerID: exhausted.ID, PaperID: uint(i + 1), FormatValid: true})
	}

	// API-Modus ist nicht quotiert, auch bei höherer Last.
	busy := newGuest("busy-api", models.ModeAPI, "ai", models.LevelCandidate)
	db.Create(&busy)
	for i := 0; i < 5; i++ {
		db.Create(&models.GuestReviewRecord{GuestReviewerID: busy.ID, PaperID: uint(i + 10), FormatValid: true})
	}

	selected, err := svc.SelectGuestReviewers("ai")
	if err != nil {
		t.Fatal(err)
	}
	if len(selected) != 1 || selected[0].DisplayName != "busy-api" {
		t.Errorf("quota-exhausted prompt reviewer must be excluded, got %v", selected)
	}
}
