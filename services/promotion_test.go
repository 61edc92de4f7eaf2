package services

import (
	"testing"
	"time"

	"turing-review/models"
)

func addRecord(t *testing.T, svc *PromotionService, guestID uint, valid, reasonable bool, commentLen int) {
	t.Helper()
	rec := models.GuestReviewRecord{
		GuestReviewerID: guestID,
		PaperID:         1,
		FormatValid:     valid,
		ScoreReasonable: reasonable,
		CommentLength:   commentLen,
	}
	if err := svc.DB.Create(&rec).Error; err != nil {
		t.Fatalf("failed to create record: %v", err)
	}
}

func TestPromotionCandidateToAssociate(t *testing.T) {
	db := openTestDB(t)
	svc := NewPromotionService(db, testLogger())

	gr := newGuest("ada", models.ModeAPI, "ai", models.LevelCandidate)
	db.Create(&gr)
	for _, l := range []int{210, 220, 205} {
		addRecord(t, svc, gr.ID, true, true, l)
	}

	if err := svc.CheckPromotionDemotion(&gr); err != nil {
		t.Fatal(err)
	}
	if gr.Level != models.LevelAssociate {
		t.Errorf("level = %d, want Associate", gr.Level)
	}
}

func TestPromotionRequiresThreeRecords(t *testing.T) {
	db := openTestDB(t)
	svc := NewPromotionService(db, testLogger())

	gr := newGuest("ada", models.ModeAPI, "ai", models.LevelCandidate)
	db.Create(&gr)
	addRecord(t, svc, gr.ID, true, true, 300)
	addRecord(t, svc, gr.ID, true, true, 300)

	svc.CheckPromotionDemotion(&gr)
	if gr.Level != models.LevelCandidate {
		t.Errorf("two records must not promote, level = %d", gr.Level)
	}
}

func TestPromotionBlockedByInvalidRecord(t *testing.T) {
	db := openTestDB(t)
	svc := NewPromotionService(db, testLogger())

	gr := newGuest("ada", models.ModeAPI, "ai", models.LevelCandidate)
	db.Create(&gr)
	addRecord(t, svc, gr.ID, true, true, 300)
	addRecord(t, svc, gr.ID, false, true, 300)
	addRecord(t, svc, gr.ID, true, true, 300)

	svc.CheckPromotionDemotion(&gr)
	if gr.Level != models.LevelCandidate {
		t.Errorf("an invalid record in the window must block promotion, level = %d", gr.Level)
	}
}

func TestPromotionMeanCommentLengthBoundary(t *testing.T) {
	db := openTestDB(t)
	svc := NewPromotionService(db, testLogger())

	// Mittelwert exakt 200 reicht nicht (strikt größer).
	gr := newGuest("ada", models.ModeAPI, "ai", models.LevelCandidate)
	db.Create(&gr)
	for _, l := range []int{200, 200, 200} {
		addRecord(t, svc, gr.ID, true, true, l)
	}
	svc.CheckPromotionDemotion(&gr)
	if gr.Level != models.LevelCandidate {
		t.Errorf("mean of exactly 200 must not promote, level = %d", gr.Level)
	}
}

func TestPromotionOnlyFromCandidate(t *testing.T) {
	db := openTestDB(t)
	svc := NewPromotionService(db, testLogger())

	gr := newGuest("ada", models.ModeAPI, "ai", models.LevelAssociate)
	db.Create(&gr)
	for _, l := range []int{300, 300, 300} {
		addRecord(t, svc, gr.ID, true, true, l)
	}
	svc.CheckPromotionDemotion(&gr)
	if gr.Level != models.LevelAssociate {
		t.Errorf("associates stay at their level, got %d", gr.Level)
	}
}

func TestDemotionAfterConsecutiveErrors(t *testing.T) {
	db := openTestDB(t)
	svc := NewPromotionService(db, testLogger())

	gr := newGuest("ada", models.ModeAPI, "ai", models.LevelAssociate)
	gr.ConsecutiveErrors = 3
	gr.CalibrationPassed = true
	db.Create(&gr)

	if err := svc.CheckPromotionDemotion(&gr); err != nil {
		t.Fatal(err)
	}
	if gr.Level != models.LevelApplicant {
		t.Errorf("level = %d, want Applicant after demotion", gr.Level)
	}
	if gr.ConsecutiveErrors != 0 {
		t.Errorf("error counter must reset, got %d", gr.ConsecutiveErrors)
	}
	if gr.CalibrationPassed {
		t.Error("demotion must require re-calibration")
	}
	if gr.CalibrationError == "" {
		t.Error("demotion reason must be recorded")
	}
}

func TestDemotionNotTriggeredBelowThreshold(t *testing.T) {
	db := openTestDB(t)
	svc := NewPromotionService(db, testLogger())

	gr := newGuest("ada", models.ModeAPI, "ai", models.LevelCandidate)
	gr.ConsecutiveErrors = 2
	db.Create(&gr)

	svc.CheckPromotionDemotion(&gr)
	if gr.Level != models.LevelCandidate {
		t.Errorf("two errors must not demote, level = %d", gr.Level)
	}
}

func TestExpireInactiveAPIReviewers(t *testing.T) {
	db := openTestDB(t)
	svc := NewPromotionService(db, testLogger())

	old := time.Now().UTC().AddDate(0, 0, -45)
	recent := time.Now().UTC().AddDate(0, 0, -5)

	stale := newGuest("stale-api", models.ModeAPI, "ai", models.LevelCandidate)
	stale.LastActiveAt = &old
	fresh := newGuest("fresh-api", models.ModeAPI, "ai", models.LevelCandidate)
	fresh.LastActiveAt = &recent
	prompt := newGuest("stale-prompt", models.ModePrompt, "ai", models.LevelCandidate)
	prompt.LastActiveAt = &old
	never := newGuest("never-active", models.ModeAPI, "ai", models.LevelCandidate)
	db.Create(&stale)
	db.Create(&fresh)
	db.Create(&prompt)
	db.Create(&never)

	count, err := svc.ExpireInactiveAPIReviewers()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("deactivated %d reviewers, want 1", count)
	}

	var check models.GuestReviewer
	db.First(&check, stale.ID)
	if check.IsActive {
		t.Error("stale api reviewer must be deactivated")
	}
	for _, id := range []uint{fresh.ID, prompt.ID, never.ID} {
		check = models.GuestReviewer{}
		db.First(&check, id)
		if !check.IsActive {
			t.Errorf("reviewer %d must stay active", id)
		}
	}
}
