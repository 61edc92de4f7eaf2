package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"turing-review/config"
	"turing-review/models"
	"turing-review/reviewers"
)

// ErrNoReviewersAvailable wird zurückgegeben, wenn kein einziges
// Staff-Backend konfiguriert ist. Das Paper fällt dann auf "submitted"
// zurück und kann später erneut angestoßen werden.
var ErrNoReviewersAvailable = errors.New("no staff reviewers available")

// DecisionMaker fällt aus den gesammelten Gutachten die finale
// Entscheidung. Im Betrieb ist das der AI-Chefredakteur.
type DecisionMaker interface {
	Model() string
	Decide(ctx context.Context, title, abstract string, reviews []reviewers.TaggedReview) (string, string, error)
}

// Notifier verschickt die Entscheidungs-Benachrichtigung an den Autor.
type Notifier interface {
	SendDecisionEmail(to string, paperID uint, title, finalDecision string) error
}

// ReviewService orchestriert die komplette Review-Runde eines Papers:
// Staff-Reviews, Community-Reviews, Qualitätsprüfung, Reputation und
// die redaktionelle Entscheidung.
type ReviewService struct {
	Config     *config.Config
	DB         *gorm.DB
	Logger     *zap.Logger
	Staff      []reviewers.Reviewer
	Editor     DecisionMaker
	Assignment *AssignmentService
	Promotion  *PromotionService
	Crypto     *Crypto
	Mailer     Notifier
}

// NewReviewService erstellt eine neue Instanz des ReviewService.
func NewReviewService(cfg *config.Config, db *gorm.DB, logger *zap.Logger,
	staff []reviewers.Reviewer, editor DecisionMaker,
	assignment *AssignmentService, promotion *PromotionService,
	crypto *Crypto, mailer Notifier) *ReviewService {
	return &ReviewService{
		Config:     cfg,
		DB:         db,
		Logger:     logger,
		Staff:      staff,
		Editor:     editor,
		Assignment: assignment,
		Promotion:  promotion,
		Crypto:     crypto,
		Mailer:     mailer,
	}
}

// staffOutcome sammelt das Ergebnis eines Staff-Reviewers. Bei
// Backend-Fehlern steht ein neutrales Ersatz-Gutachten drin, damit der
// Editor immer über alle Staff-Stimmen verfügt.
type staffOutcome struct {
	reviewer reviewers.Reviewer
	result   *reviewers.ReviewResult
	raw      string
}

// guestOutcome sammelt das Ergebnis eines Community-Reviewers inklusive
// eines eventuellen Backend-Fehlers.
type guestOutcome struct {
	guest  models.GuestReviewer
	result *reviewers.ReviewResult
	raw    string
	err    error
}

// mustJSON serialisiert eine String-Liste für eine jsonb-Spalte.
func mustJSON(items []string) datatypes.JSON {
	b, err := json.Marshal(items)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(b)
}

// neutralFallback baut das Ersatz-Gutachten für einen ausgefallenen
// Staff-Reviewer. Es ist bewusst neutral gehalten, damit ein einzelner
// Backend-Ausfall die Entscheidung nicht verzerrt.
func neutralFallback(err error) *reviewers.ReviewResult {
	return &reviewers.ReviewResult{
		Decision:         models.DecisionMajorRevision,
		NoveltyScore:     5,
		SoundnessScore:   5,
		WritingScore:     5,
		Strengths:        []string{"Review could not be completed"},
		Weaknesses:       []string{fmt.Sprintf("Reviewer error: %.300s", err.Error())},
		DetailedComments: "This review could not be completed due to a technical error. The scores are neutral placeholders and should be weighted accordingly.",
		Suggestions:      "Please resubmit for re-review.",
	}
}

// RunReviewPipeline führt die komplette Review-Runde für ein Paper aus.
// Der Aufrufer stellt sicher, dass pro Paper höchstens eine Runde
// gleichzeitig läuft.
func (s *ReviewService) RunReviewPipeline(ctx context.Context, paperID uint) error {
	var paper models.Paper
	if err := s.DB.First(&paper, paperID).Error; err != nil {
		return fmt.Errorf("load paper %d: %w", paperID, err)
	}

	paper.Status = models.StatusUnderReview
	if err := s.DB.Save(&paper).Error; err != nil {
		return err
	}
	s.Logger.Info("Review pipeline started",
		zap.Uint("paper_id", paper.ID),
		zap.String("title", paper.Title))

	if len(s.Staff) == 0 {
		paper.Status = models.StatusSubmitted
		if err := s.DB.Save(&paper).Error; err != nil {
			return err
		}
		s.Logger.Error("No staff reviewers configured, aborting pipeline",
			zap.Uint("paper_id", paper.ID))
		return ErrNoReviewersAvailable
	}

	staffOutcomes := s.runStaffReviews(ctx, &paper)
	guestOutcomes := s.runGuestReviews(ctx, &paper)

	editorReviews := make([]reviewers.TaggedReview, 0, len(staffOutcomes)+len(guestOutcomes))

	for _, o := range staffOutcomes {
		review := models.Review{
			PaperID:          paper.ID,
			ReviewerName:     o.reviewer.Name(),
			ModelProvider:    o.reviewer.Provider(),
			Decision:         o.result.Decision,
			NoveltyScore:     o.result.NoveltyScore,
			SoundnessScore:   o.result.SoundnessScore,
			WritingScore:     o.result.WritingScore,
			Strengths:        mustJSON(o.result.Strengths),
			Weaknesses:       mustJSON(o.result.Weaknesses),
			DetailedComments: o.result.DetailedComments,
			Suggestions:      o.result.Suggestions,
			RawResponse:      o.raw,
			ReviewedAt:       time.Now(),
		}
		if err := s.DB.Create(&review).Error; err != nil {
			s.Logger.Error("Failed to persist staff review",
				zap.Uint("paper_id", paper.ID),
				zap.String("reviewer", o.reviewer.Name()),
				zap.Error(err))
		}
		editorReviews = append(editorReviews, reviewers.TaggedReview{
			ReviewerName: o.reviewer.Name(),
			Result:       o.result,
		})
	}

	for _, o := range guestOutcomes {
		tagged, ok := s.processGuestOutcome(&paper, o)
		if ok {
			editorReviews = append(editorReviews, tagged)
		}
	}

	decision, letter, err := s.Editor.Decide(ctx, paper.Title, paper.Abstract, editorReviews)
	if err != nil {
		s.Logger.Error("Editor decision failed, falling back to major_revision",
			zap.Uint("paper_id", paper.ID),
			zap.Error(err))
		decision = models.DecisionMajorRevision
		letter = fmt.Sprintf("Editorial decision could not be generated due to an error: %.300s", err.Error())
	}

	now := time.Now()
	ed := models.EditorialDecision{
		PaperID:        paper.ID,
		FinalDecision:  decision,
		DecisionLetter: letter,
		EditorModel:    s.Editor.Model(),
		DecidedAt:      now,
	}
	if err := s.DB.Create(&ed).Error; err != nil {
		return fmt.Errorf("persist editorial decision for paper %d: %w", paper.ID, err)
	}

	switch decision {
	case models.DecisionAccept:
		paper.Status = models.StatusAccepted
		num, err := s.nextPublicationNumber()
		if err != nil {
			s.Logger.Error("Failed to compute publication number", zap.Error(err))
		} else {
			paper.PublicationNumber = &num
		}
	case models.DecisionReject:
		paper.Status = models.StatusRejected
	default:
		paper.Status = models.StatusRevision
	}
	paper.DecidedAt = &now
	if err := s.DB.Save(&paper).Error; err != nil {
		return err
	}

	s.Logger.Info("Review pipeline finished",
		zap.Uint("paper_id", paper.ID),
		zap.String("decision", decision),
		zap.Int("reviews", len(editorReviews)))

	if s.Mailer != nil && paper.Email != "" {
		if err := s.Mailer.SendDecisionEmail(paper.Email, paper.ID, paper.Title, decision); err != nil {
			s.Logger.Warn("Decision notification failed", zap.Error(err))
		}
	}
	return nil
}

// runStaffReviews lässt alle Staff-Reviewer parallel laufen. Ausfälle
// werden durch ein neutrales Ersatz-Gutachten ersetzt.
func (s *ReviewService) runStaffReviews(ctx context.Context, paper *models.Paper) []staffOutcome {
	outcomes := make([]staffOutcome, len(s.Staff))
	var wg sync.WaitGroup

	for i, r := range s.Staff {
		wg.Add(1)
		go func(i int, r reviewers.Reviewer) {
			defer wg.Done()
			result, raw, err := r.Review(ctx, paper.Title, paper.Abstract, paper.Keywords, paper.ContentText, paper.Authors)
			if err != nil {
				s.Logger.Warn("Staff reviewer failed, substituting neutral review",
					zap.String("reviewer", r.Name()),
					zap.Uint("paper_id", paper.ID),
					zap.Error(err))
				result = neutralFallback(err)
				raw = ""
			}
			outcomes[i] = staffOutcome{reviewer: r, result: result, raw: raw}
		}(i, r)
	}
	wg.Wait()
	return outcomes
}

// runGuestReviews wählt Community-Reviewer aus und lässt sie parallel
// laufen. Ein Fehler bei der Auswahl bricht nicht die Runde ab; es gibt
// dann einfach keine Community-Stimmen.
func (s *ReviewService) runGuestReviews(ctx context.Context, paper *models.Paper) []guestOutcome {
	guests, err := s.Assignment.SelectGuestReviewers(paper.Keywords)
	if err != nil {
		s.Logger.Error("Guest reviewer selection failed",
			zap.Uint("paper_id", paper.ID),
			zap.Error(err))
		return nil
	}
	if len(guests) == 0 {
		return nil
	}

	outcomes := make([]guestOutcome, len(guests))
	var wg sync.WaitGroup

	for i, g := range guests {
		wg.Add(1)
		go func(i int, g models.GuestReviewer) {
			defer wg.Done()
			outcomes[i] = guestOutcome{guest: g}

			apiKey, err := s.Crypto.DecryptAPIKey(g.APIKeyEncrypted)
			if err != nil {
				outcomes[i].err = err
				return
			}
			runner, err := reviewers.NewGuestRunner(&g, s.Config, apiKey, s.Logger)
			if err != nil {
				outcomes[i].err = err
				return
			}
			result, raw, err := runner.Review(ctx, paper.Title, paper.Abstract, paper.Keywords, paper.ContentText, paper.Authors)
			if err != nil {
				outcomes[i].err = err
				return
			}
			outcomes[i].result = result
			outcomes[i].raw = raw
		}(i, g)
	}
	wg.Wait()
	return outcomes
}

// processGuestOutcome verbucht das Ergebnis eines Community-Reviewers:
// Review-Zeile, Ledger-Eintrag, Reputation. Gibt das getaggte Gutachten
// zurück, falls es an den Editor geht (Associate + formatgültig).
func (s *ReviewService) processGuestOutcome(paper *models.Paper, o guestOutcome) (reviewers.TaggedReview, bool) {
	gr := o.guest

	if o.err != nil {
		s.Logger.Warn("Guest reviewer failed",
			zap.String("reviewer", gr.DisplayName),
			zap.Uint("paper_id", paper.ID),
			zap.Error(o.err))
		record := models.GuestReviewRecord{
			GuestReviewerID: gr.ID,
			PaperID:         paper.ID,
		}
		if err := s.DB.Create(&record).Error; err != nil {
			s.Logger.Error("Failed to persist guest review record", zap.Error(err))
		}
		gr.ConsecutiveErrors++
		if err := s.DB.Save(&gr).Error; err != nil {
			s.Logger.Error("Failed to update guest reviewer", zap.Error(err))
		}
		if err := s.Promotion.CheckPromotionDemotion(&gr); err != nil {
			s.Logger.Error("Promotion check failed", zap.Error(err))
		}
		return reviewers.TaggedReview{}, false
	}

	violations := ValidateReviewFormat(o.result)
	formatValid := len(violations) == 0
	scoreReasonable := ScoresReasonable(o.result)
	commentLength := len(o.result.DetailedComments)

	level := gr.Level
	displayName := fmt.Sprintf("%s [%s]", gr.DisplayName, gr.LevelLabel())
	review := models.Review{
		PaperID:          paper.ID,
		ReviewerName:     displayName,
		ModelProvider:    "guest_" + gr.Mode,
		Decision:         o.result.Decision,
		NoveltyScore:     o.result.NoveltyScore,
		SoundnessScore:   o.result.SoundnessScore,
		WritingScore:     o.result.WritingScore,
		Strengths:        mustJSON(o.result.Strengths),
		Weaknesses:       mustJSON(o.result.Weaknesses),
		DetailedComments: o.result.DetailedComments,
		Suggestions:      o.result.Suggestions,
		RawResponse:      o.raw,
		ReviewedAt:       time.Now(),
		IsGuest:          true,
		GuestReviewerID:  &gr.ID,
		GuestLevel:       &level,
	}
	if err := s.DB.Create(&review).Error; err != nil {
		s.Logger.Error("Failed to persist guest review", zap.Error(err))
	}

	sentToEditor := gr.Level == models.LevelAssociate && formatValid
	record := models.GuestReviewRecord{
		GuestReviewerID: gr.ID,
		ReviewID:        &review.ID,
		PaperID:         paper.ID,
		FormatValid:     formatValid,
		ScoreReasonable: scoreReasonable,
		CommentLength:   commentLength,
		SentToEditor:    sentToEditor,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		s.Logger.Error("Failed to persist guest review record", zap.Error(err))
	}

	if formatValid {
		now := time.Now()
		gr.ConsecutiveErrors = 0
		gr.LastActiveAt = &now
	} else {
		s.Logger.Info("Guest review failed format validation",
			zap.String("reviewer", gr.DisplayName),
			zap.Strings("violations", violations))
		gr.ConsecutiveErrors++
	}
	if err := s.DB.Save(&gr).Error; err != nil {
		s.Logger.Error("Failed to update guest reviewer", zap.Error(err))
	}
	if err := s.Promotion.CheckPromotionDemotion(&gr); err != nil {
		s.Logger.Error("Promotion check failed", zap.Error(err))
	}

	if !sentToEditor {
		return reviewers.TaggedReview{}, false
	}
	return reviewers.TaggedReview{
		ReviewerName: fmt.Sprintf("[Associate Reviewer] %s", gr.DisplayName),
		Associate:    true,
		Result:       o.result,
	}, true
}

// nextPublicationNumber vergibt die nächste fortlaufende
// Publikationsnummer für akzeptierte Paper.
func (s *ReviewService) nextPublicationNumber() (int, error) {
	var max *int
	if err := s.DB.Model(&models.Paper{}).
		Select("MAX(publication_number)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}
