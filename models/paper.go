package models

import (
	"time"
)

// Paper-Status-Lebenszyklus.
const (
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under_review"
	StatusAccepted    = "accepted"
	StatusRevision    = "revision"
	StatusRejected    = "rejected"
)

// Paper repräsentiert ein eingereichtes Manuskript und dessen Review-Zustand.
// Pro Paper läuft höchstens eine Review-Runde gleichzeitig; das stellt der
// Aufrufer sicher (die Pipeline wird pro Paper nur einmal angestoßen).
type Paper struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title    string `json:"title" gorm:"size:500;not null"`
	Abstract string `json:"abstract" gorm:"type:text;not null"`
	Authors  string `json:"authors" gorm:"size:500;default:'Anonymous'"`
	Email    string `json:"email,omitempty" gorm:"size:200;index"`
	Keywords string `json:"keywords,omitempty" gorm:"size:500"` // kommagetrennt

	ContentText string `json:"content_text,omitempty" gorm:"type:text"`
	S3Link      string `json:"s3_link,omitempty" gorm:"type:text"` // Archivkopie des Manuskripts

	Status            string     `json:"status" gorm:"size:50;index;default:'submitted'"`
	PublicationNumber *int       `json:"publication_number,omitempty" gorm:"uniqueIndex"` // nur bei accepted vergeben
	SubmittedAt       time.Time  `json:"submitted_at"`
	DecidedAt         *time.Time `json:"decided_at,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (Paper) TableName() string {
	return "papers"
}
