package services

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"turing-review/config"
	"turing-review/models"
)

// RateLimitService begrenzt die Anzahl der Einreichungen pro E-Mail-Adresse
// (Tages- und Monatslimit).
type RateLimitService struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewRateLimitService erstellt eine neue Instanz des RateLimitService.
func NewRateLimitService(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *RateLimitService {
	return &RateLimitService{Config: cfg, DB: db, Logger: logger}
}

// CheckSubmissionLimit prüft, ob die E-Mail-Adresse heute bzw. diesen Monat
// noch einreichen darf. Leere Adressen werden nicht limitiert.
func (r *RateLimitService) CheckSubmissionLimit(email string) (bool, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return true, "", nil
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var dailyCount int64
	if err := r.DB.Model(&models.Paper{}).
		Where("LOWER(email) = ? AND submitted_at >= ?", email, dayStart).
		Count(&dailyCount).Error; err != nil {
		return false, "", err
	}
	if dailyCount >= int64(r.Config.DailySubmitLimit) {
		r.Logger.Info("Daily submission limit reached", zap.String("email", email))
		return false, fmt.Sprintf("Daily submission limit reached (%d per day). Please try again tomorrow.",
			r.Config.DailySubmitLimit), nil
	}

	var monthlyCount int64
	if err := r.DB.Model(&models.Paper{}).
		Where("LOWER(email) = ? AND submitted_at >= ?", email, monthStart).
		Count(&monthlyCount).Error; err != nil {
		return false, "", err
	}
	if monthlyCount >= int64(r.Config.MonthlySubmitLimit) {
		r.Logger.Info("Monthly submission limit reached", zap.String("email", email))
		return false, fmt.Sprintf("Monthly submission limit reached (%d per month). Please try again next month.",
			r.Config.MonthlySubmitLimit), nil
	}

	return true, "", nil
}
