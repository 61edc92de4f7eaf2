package models

import (
	"time"
)

// GuestReviewRecord ist der unveränderliche Qualitäts-Ledger-Eintrag pro
// Review-Versuch eines Community-Reviewers (auch für fehlgeschlagene
// Versuche). Einträge werden nie nachträglich geändert oder gelöscht; die
// Promotion-Logik liest sie in Erstellungsreihenfolge.
type GuestReviewRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	GuestReviewerID uint  `json:"guest_reviewer_id" gorm:"index;not null"`
	ReviewID        *uint `json:"review_id,omitempty"`
	PaperID         uint  `json:"paper_id" gorm:"index;not null"`

	FormatValid     bool `json:"format_valid"`
	ScoreReasonable bool `json:"score_reasonable"`
	CommentLength   int  `json:"comment_length"`
	SentToEditor    bool `json:"sent_to_editor"` // nur Associate + formatgültig
}

// TableName gibt explizit den Tabellennamen an.
func (GuestReviewRecord) TableName() string {
	return "guest_review_records"
}
