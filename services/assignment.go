package services

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"turing-review/config"
	"turing-review/models"
)

// AssignmentService wählt die Community-Reviewer für eine Review-Runde aus.
type AssignmentService struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewAssignmentService erstellt eine neue Instanz des AssignmentService.
func NewAssignmentService(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{Config: cfg, DB: db, Logger: logger}
}

// keywordSet zerlegt eine kommagetrennte Keyword-Liste in ein
// normalisiertes Set.
func keywordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, k := range strings.Split(s, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			set[k] = true
		}
	}
	return set
}

type scoredCandidate struct {
	score    int
	tieBreak float64
	reviewer models.GuestReviewer
}

// SelectGuestReviewers wählt bis zu MaxGuestReviewersPerPaper Community-
// Reviewer für ein Paper aus.
//
// Auswahl:
//  1. Kandidaten: Level >= Candidate, aktiv.
//  2. Prompt-Modus-Kandidaten am Monatslimit fliegen raus (Kostenkontrolle).
//  3. Score = 10 * Keyword-Überlappung - Reviews in den letzten 30 Tagen.
//  4. Absteigend sortiert; exakte Gleichstände werden zufällig aufgelöst,
//     wiederholte Läufe über identische Pools können also unterschiedlich
//     ausgehen.
//  5. Prompt-Modus-Zusagen sind zusätzlich pro Paper gedeckelt; ein darüber
//     hinausgehender Prompt-Kandidat wird übersprungen und zählt nicht gegen
//     das Gesamtlimit.
func (a *AssignmentService) SelectGuestReviewers(paperKeywords string) ([]models.GuestReviewer, error) {
	var candidates []models.GuestReviewer
	if err := a.DB.
		Where("level >= ? AND is_active = ?", models.LevelCandidate, true).
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Reviews pro Reviewer in den letzten 30 Tagen (Lastausgleich + Monatslimit)
	thirtyDaysAgo := time.Now().UTC().AddDate(0, 0, -30)
	type countRow struct {
		GuestReviewerID uint
		Cnt             int
	}
	var rows []countRow
	if err := a.DB.Model(&models.GuestReviewRecord{}).
		Select("guest_reviewer_id, COUNT(id) AS cnt").
		Where("created_at >= ?", thirtyDaysAgo).
		Group("guest_reviewer_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	recentCounts := make(map[uint]int, len(rows))
	for _, r := range rows {
		recentCounts[r.GuestReviewerID] = r.Cnt
	}

	paperKW := keywordSet(paperKeywords)

	var scored []scoredCandidate
	for _, c := range candidates {
		if c.Mode == models.ModePrompt && recentCounts[c.ID] >= a.Config.PromptModeMonthlyQuota {
			continue
		}
		overlap := 0
		for k := range keywordSet(c.ExpertiseAreas) {
			if paperKW[k] {
				overlap++
			}
		}
		scored = append(scored, scoredCandidate{
			score:    overlap*10 - recentCounts[c.ID],
			tieBreak: rand.Float64(),
			reviewer: c,
		})
	}
	if len(scored) == 0 {
		return nil, nil
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].tieBreak < scored[j].tieBreak
	})

	var selected []models.GuestReviewer
	promptCount := 0
	for _, s := range scored {
		if len(selected) >= a.Config.MaxGuestReviewersPerPaper {
			break
		}
		if s.reviewer.Mode == models.ModePrompt {
			if promptCount >= a.Config.MaxPromptModePerPaper {
				continue
			}
			promptCount++
		}
		selected = append(selected, s.reviewer)
	}

	a.Logger.Debug("Guest reviewer selection completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(selected)))
	return selected, nil
}
