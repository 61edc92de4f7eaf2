package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"turing-review/models"
)

func newCalibration(t *testing.T) *CalibrationService {
	t.Helper()
	db := openTestDB(t)
	cfg := testConfig()
	crypto, err := NewCrypto(cfg.GuestAPIKeySecret)
	if err != nil {
		t.Fatal(err)
	}
	return NewCalibrationService(cfg, db, testLogger(), crypto)
}

func calibrationGuest(t *testing.T, svc *CalibrationService, baseURL string) models.GuestReviewer {
	t.Helper()
	encrypted, err := svc.Crypto.EncryptAPIKey("guest-key")
	if err != nil {
		t.Fatal(err)
	}
	gr := models.GuestReviewer{
		DisplayName:     "newcomer",
		Email:           "newcomer@example.org",
		Mode:            models.ModeAPI,
		APIBaseURL:      baseURL,
		APIKeyEncrypted: encrypted,
		APIModelName:    "test-model",
		Level:           models.LevelApplicant,
		IsActive:        true,
	}
	if err := svc.DB.Create(&gr).Error; err != nil {
		t.Fatal(err)
	}
	return gr
}

func TestRunCalibrationPass(t *testing.T) {
	server := guestBackend(t, validGuestReviewJSON())
	defer server.Close()

	svc := newCalibration(t)
	gr := calibrationGuest(t, svc, server.URL)

	passed, errMsg, err := svc.RunCalibration(context.Background(), &gr)
	if err != nil {
		t.Fatalf("RunCalibration: %v", err)
	}
	if !passed || errMsg != "" {
		t.Fatalf("got (passed=%v, %q), want pass", passed, errMsg)
	}

	var check models.GuestReviewer
	svc.DB.First(&check, gr.ID)
	if check.Level != models.LevelCandidate {
		t.Errorf("level = %d, want Candidate", check.Level)
	}
	if !check.CalibrationPassed || check.CalibrationError != "" {
		t.Errorf("calibration state = (%v, %q)", check.CalibrationPassed, check.CalibrationError)
	}
}

func TestRunCalibrationFormatFailure(t *testing.T) {
	server := guestBackend(t, `{"decision":"accept","novelty_score":7,"soundness_score":6,"writing_score":7,"strengths":["s1"],"weaknesses":["w1"],"detailed_comments":"short","suggestions":"x"}`)
	defer server.Close()

	svc := newCalibration(t)
	gr := calibrationGuest(t, svc, server.URL)

	passed, errMsg, err := svc.RunCalibration(context.Background(), &gr)
	if err != nil {
		t.Fatal(err)
	}
	if passed {
		t.Fatal("a format-invalid review must fail calibration")
	}
	if !strings.Contains(errMsg, "strengths") || !strings.Contains(errMsg, "; ") {
		t.Errorf("violations must be joined into the error message, got %q", errMsg)
	}

	var check models.GuestReviewer
	svc.DB.First(&check, gr.ID)
	if check.Level != models.LevelApplicant {
		t.Errorf("failed calibration must not promote, level = %d", check.Level)
	}
	if check.CalibrationError == "" {
		t.Error("stored calibration error missing")
	}
}

func TestRunCalibrationBackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := newCalibration(t)
	gr := calibrationGuest(t, svc, server.URL)

	passed, errMsg, err := svc.RunCalibration(context.Background(), &gr)
	if err != nil {
		t.Fatal(err)
	}
	if passed {
		t.Fatal("a backend failure must fail calibration")
	}
	if !strings.HasPrefix(errMsg, "API call failed:") {
		t.Errorf("error message = %q, want 'API call failed:' prefix", errMsg)
	}

	var check models.GuestReviewer
	svc.DB.First(&check, gr.ID)
	if check.Level != models.LevelApplicant || check.CalibrationPassed {
		t.Error("backend failure must leave the reviewer at Applicant")
	}
}

func TestCalibrationManuscriptIsFixed(t *testing.T) {
	if calibrationPaper.Title == "" || calibrationPaper.Content == "" {
		t.Fatal("calibration manuscript must be embedded")
	}
	if !strings.Contains(calibrationPaper.Content, "NP-hard") {
		t.Error("calibration manuscript content changed unexpectedly")
	}
}
