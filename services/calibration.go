package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"turing-review/config"
	"turing-review/models"
	"turing-review/reviewers"
)

// Das Kalibrierungs-Manuskript: plausibel klingend, aber absichtlich
// fehlerhaft (hohle Beweisskizzen, fabrizierte Referenzen). Ein Reviewer,
// der hier kein formatgültiges, substanzielles Gutachten liefert, wird
// nicht zum Candidate befördert.
var calibrationPaper = struct {
	Title    string
	Authors  string
	Abstract string
	Keywords string
	Content  string
}{
	Title:   "On the Computational Complexity of Tea Brewing: A Formal Analysis",
	Authors: "A. Turing, C. Shannon",
	Abstract: "We present a formal analysis of the computational complexity of optimal tea brewing. " +
		"We model the tea brewing process as a constraint satisfaction problem and prove that " +
		"finding the optimal brewing parameters (temperature, steeping time, water-to-leaf ratio) " +
		"is NP-hard in the general case. We propose a polynomial-time approximation algorithm " +
		"that achieves a 1.5-approximation ratio and validate it through experiments with 12 " +
		"varieties of tea. Our results suggest that most humans use suboptimal brewing strategies " +
		"and could improve their tea quality by 23% using our algorithm.",
	Keywords: "computational complexity, optimization, beverage science, NP-hardness",
	Content: `On the Computational Complexity of Tea Brewing: A Formal Analysis

1. Introduction

Tea brewing is one of humanity's oldest optimization problems, yet it has received surprisingly little attention from the theoretical computer science community. In this paper, we formalize the Tea Brewing Problem (TBP) and analyze its computational complexity.

The key parameters of tea brewing include: water temperature T (in Celsius), steeping time t (in seconds), water-to-leaf ratio r (in ml/g), and agitation frequency f (stirs per minute). The objective is to maximize a quality function Q(T, t, r, f) that captures the subjective experience of the brewed tea.

2. Problem Formulation

Definition 1 (Tea Brewing Problem). Given a set of tea leaves L with chemical composition vector c, find parameters (T*, t*, r*, f*) that maximize Q(T, t, r, f | c).

Theorem 1. The Tea Brewing Problem is NP-hard.

Proof sketch: We reduce from 3-SAT. Given a 3-SAT instance with n variables and m clauses, we construct a tea blend with n+m chemical compounds such that the optimal brewing parameters encode a satisfying assignment. The full reduction is straightforward but tedious, so we leave the details to the appendix (which is not included in this version).

3. Approximation Algorithm

We propose GREEDY-BREW, a polynomial-time algorithm that iteratively adjusts each parameter while holding others fixed.

Theorem 2. GREEDY-BREW achieves a 1.5-approximation ratio for the Tea Brewing Problem.

Proof: By the submodularity of the quality function Q... (proof omitted for brevity).

4. Experimental Results

We tested GREEDY-BREW on 12 varieties of tea. GREEDY-BREW achieved an average quality improvement of 23% over manufacturer recommendations, 8% over expert baristas, and 67% over random parameters. Quality was assessed by a panel of 5 tasters on a 1-10 scale.

Statistical significance was evaluated using a t-test (p < 0.05 for all comparisons except vs. expert baristas where p = 0.08).

5. Conclusion

We have shown that optimal tea brewing is NP-hard but efficiently approximable. Future work includes extending our framework to coffee brewing (which we conjecture is PSPACE-hard due to the additional pressure variable in espresso).

References:
[1] Knuth, D.E. "The Art of Tea Programming", 1975.
[2] Dijkstra, E.W. "A Note on Two Problems in Connection with Teapots", 1959.
[3] Various fabricated references.`,
}

// CalibrationService führt den Kalibrierungstest für frisch registrierte
// oder rekalibrierende Community-Reviewer aus (Applicant → Candidate).
type CalibrationService struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
	Crypto *Crypto
}

// NewCalibrationService erstellt eine neue Instanz des CalibrationService.
func NewCalibrationService(cfg *config.Config, db *gorm.DB, logger *zap.Logger, crypto *Crypto) *CalibrationService {
	return &CalibrationService{Config: cfg, DB: db, Logger: logger, Crypto: crypto}
}

// RunCalibration lässt den Reviewer einmal gegen das feste
// Kalibrierungs-Manuskript antreten. Bestehen der Formatprüfung befördert
// auf Candidate; Fehlschläge (auch Backend-Fehler) lassen das Level bei
// Applicant und hinterlegen die Fehlermeldung. Es gibt keinen automatischen
// Retry.
func (c *CalibrationService) RunCalibration(ctx context.Context, gr *models.GuestReviewer) (bool, string, error) {
	apiKey, err := c.Crypto.DecryptAPIKey(gr.APIKeyEncrypted)
	if err != nil {
		return false, "", err
	}
	runner, err := reviewers.NewGuestRunner(gr, c.Config, apiKey, c.Logger)
	if err != nil {
		return false, "", err
	}

	result, _, err := runner.Review(ctx,
		calibrationPaper.Title,
		calibrationPaper.Abstract,
		calibrationPaper.Keywords,
		calibrationPaper.Content,
		calibrationPaper.Authors,
	)
	if err != nil {
		errMsg := fmt.Sprintf("API call failed: %.500s", err.Error())
		c.Logger.Error("Calibration backend call failed",
			zap.String("reviewer", gr.DisplayName),
			zap.Error(err))
		gr.CalibrationPassed = false
		gr.CalibrationError = errMsg
		if dbErr := c.DB.Save(gr).Error; dbErr != nil {
			return false, "", dbErr
		}
		return false, errMsg, nil
	}

	if violations := ValidateReviewFormat(result); len(violations) > 0 {
		errMsg := strings.Join(violations, "; ")
		gr.CalibrationPassed = false
		gr.CalibrationError = errMsg
		if dbErr := c.DB.Save(gr).Error; dbErr != nil {
			return false, "", dbErr
		}
		return false, errMsg, nil
	}

	gr.CalibrationPassed = true
	gr.CalibrationError = ""
	gr.Level = models.LevelCandidate
	if dbErr := c.DB.Save(gr).Error; dbErr != nil {
		return false, "", dbErr
	}
	c.Logger.Info("Calibration passed, promoted to Candidate",
		zap.String("reviewer", gr.DisplayName))
	return true, "", nil
}
