package services

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"turing-review/models"
)

// PromotionService setzt die Promotion-/Demotion-Regeln der Community-
// Reviewer um und führt den Inaktivitäts-Sweep für API-Modus-Reviewer aus.
type PromotionService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewPromotionService erstellt eine neue Instanz des PromotionService.
func NewPromotionService(db *gorm.DB, logger *zap.Logger) *PromotionService {
	return &PromotionService{DB: db, Logger: logger}
}

// CheckPromotionDemotion prüft nach einer Review-Runde Auf- und Abstieg
// eines Reviewers.
//
// Demotion (jede Stufe → Applicant): ab 3 Formatfehlern in Folge wird das
// Level zurückgesetzt, der Zähler genullt und eine Rekalibrierung verlangt.
// Promotion (Candidate → Associate): die 3 jüngsten Qualitätseinträge müssen
// alle formatgültig und plausibel bewertet sein und im Mittel über 200
// Zeichen Kommentar haben; bei weniger als 3 Einträgen fällt keine
// Entscheidung.
func (p *PromotionService) CheckPromotionDemotion(gr *models.GuestReviewer) error {
	if gr.ConsecutiveErrors >= 3 {
		oldLevel := gr.Level
		gr.Level = models.LevelApplicant
		gr.CalibrationPassed = false
		gr.CalibrationError = "Demoted: 3 consecutive format errors. Please re-calibrate."
		gr.ConsecutiveErrors = 0
		if err := p.DB.Save(gr).Error; err != nil {
			return err
		}
		p.Logger.Info("Demoted guest reviewer after consecutive format errors",
			zap.String("reviewer", gr.DisplayName),
			zap.Int("old_level", oldLevel))
		return nil
	}

	if gr.Level != models.LevelCandidate {
		return nil
	}

	var records []models.GuestReviewRecord
	if err := p.DB.
		Where("guest_reviewer_id = ?", gr.ID).
		Order("created_at DESC, id DESC").
		Limit(3).
		Find(&records).Error; err != nil {
		return err
	}
	if len(records) < 3 {
		return nil
	}

	totalLen := 0
	for _, r := range records {
		if !r.FormatValid || !r.ScoreReasonable {
			return nil
		}
		totalLen += r.CommentLength
	}
	if float64(totalLen)/3 <= 200 {
		return nil
	}

	gr.Level = models.LevelAssociate
	if err := p.DB.Save(gr).Error; err != nil {
		return err
	}
	p.Logger.Info("Promoted guest reviewer from Candidate to Associate",
		zap.String("reviewer", gr.DisplayName))
	return nil
}

// ExpireInactiveAPIReviewers markiert API-Modus-Reviewer ohne Aktivität in
// den letzten 30 Tagen als inaktiv. Läuft als periodischer Wartungs-Sweep
// unabhängig von einzelnen Review-Runden.
func (p *PromotionService) ExpireInactiveAPIReviewers() (int, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -30)

	var inactive []models.GuestReviewer
	if err := p.DB.
		Where("mode = ? AND is_active = ? AND last_active_at IS NOT NULL AND last_active_at < ?",
			models.ModeAPI, true, threshold).
		Find(&inactive).Error; err != nil {
		return 0, err
	}

	for i := range inactive {
		inactive[i].IsActive = false
		if err := p.DB.Save(&inactive[i]).Error; err != nil {
			return 0, err
		}
		p.Logger.Info("Marked api-mode guest reviewer as inactive",
			zap.String("reviewer", inactive[i].DisplayName))
	}
	return len(inactive), nil
}
