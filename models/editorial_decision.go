package models

import (
	"time"
)

// EditorialDecision ist die finale Entscheidung des AI-Chefredakteurs.
// Pro Paper existiert höchstens eine Entscheidung (uniqueIndex auf PaperID).
type EditorialDecision struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PaperID        uint      `json:"paper_id" gorm:"uniqueIndex;not null"`
	FinalDecision  string    `json:"final_decision" gorm:"size:50;not null"`
	DecisionLetter string    `json:"decision_letter,omitempty" gorm:"type:text"`
	EditorModel    string    `json:"editor_model,omitempty" gorm:"size:100"`
	DecidedAt      time.Time `json:"decided_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (EditorialDecision) TableName() string {
	return "editorial_decisions"
}
