package models

import (
	"time"

	"gorm.io/datatypes"
)

// Gültige Review-Entscheidungen.
const (
	DecisionAccept        = "accept"
	DecisionMinorRevision = "minor_revision"
	DecisionMajorRevision = "major_revision"
	DecisionReject        = "reject"
)

// Review speichert das strukturierte Gutachten eines Reviewers für ein Paper.
// Die Rohantwort des Backends bleibt für Audits erhalten.
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PaperID       uint   `json:"paper_id" gorm:"index;not null"`
	ReviewerName  string `json:"reviewer_name" gorm:"size:100;not null"`
	ModelProvider string `json:"model_provider" gorm:"size:50;not null"`

	Decision      string `json:"decision" gorm:"size:50"`
	NoveltyScore  int    `json:"novelty_score"`
	SoundnessScore int   `json:"soundness_score"`
	WritingScore  int    `json:"writing_score"`

	Strengths  datatypes.JSON `json:"strengths" gorm:"type:jsonb"`
	Weaknesses datatypes.JSON `json:"weaknesses" gorm:"type:jsonb"`

	DetailedComments string `json:"detailed_comments,omitempty" gorm:"type:text"`
	Suggestions      string `json:"suggestions,omitempty" gorm:"type:text"`
	RawResponse      string `json:"raw_response,omitempty" gorm:"type:text"`

	ReviewedAt time.Time `json:"reviewed_at"`

	// Community-Reviewer-Zuordnung
	IsGuest         bool  `json:"is_guest" gorm:"default:false;index"`
	GuestReviewerID *uint `json:"guest_reviewer_id,omitempty" gorm:"index"`
	GuestLevel      *int  `json:"guest_level,omitempty"` // Level-Snapshot zum Review-Zeitpunkt
}

// TableName gibt explizit den Tabellennamen an.
func (Review) TableName() string {
	return "reviews"
}
