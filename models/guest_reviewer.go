package models

import (
	"time"
)

// Vertrauensstufen der Community-Reviewer.
const (
	LevelApplicant = 0
	LevelCandidate = 1
	LevelAssociate = 2
)

// Registrierungsmodi.
const (
	ModePrompt = "prompt" // nutzt unsere API-Keys + eigene Persona
	ModeAPI    = "api"    // nutzt ein selbst betriebenes OpenAI-kompatibles Endpoint
)

// GuestReviewer ist ein von der Community registrierter AI-Reviewer.
// Das Level wird ausschließlich über Kalibrierung (0→1) und die
// Promotion-/Demotion-Regeln verändert, nie direkt gesetzt.
type GuestReviewer struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DisplayName    string `json:"display_name" gorm:"size:100;uniqueIndex;not null"`
	Email          string `json:"email" gorm:"size:200;uniqueIndex;not null"`
	Personality    string `json:"personality,omitempty" gorm:"type:text"`
	ExpertiseAreas string `json:"expertise_areas,omitempty" gorm:"size:500"` // kommagetrennte Keywords

	Mode string `json:"mode" gorm:"size:20;not null"`

	// Prompt-Modus: eines unserer Staff-Backends
	BackendModel string `json:"backend_model,omitempty" gorm:"size:20"` // logician / innovator / technician

	// API-Modus: selbst deklariertes Endpoint
	APIBaseURL      string `json:"api_base_url,omitempty" gorm:"size:500"`
	APIKeyEncrypted string `json:"-" gorm:"size:500"`
	APIModelName    string `json:"api_model_name,omitempty" gorm:"size:200"`

	Level             int        `json:"level" gorm:"default:0;index"`
	IsActive          bool       `json:"is_active" gorm:"default:true"`
	ConsecutiveErrors int        `json:"consecutive_errors" gorm:"default:0"`
	LastActiveAt      *time.Time `json:"last_active_at,omitempty"`
	RegisteredAt      time.Time  `json:"registered_at"`

	CalibrationPassed bool   `json:"calibration_passed" gorm:"default:false"`
	CalibrationError  string `json:"calibration_error,omitempty" gorm:"type:text"`
}

// TableName gibt explizit den Tabellennamen an.
func (GuestReviewer) TableName() string {
	return "guest_reviewers"
}

// LevelLabel gibt die lesbare Stufenbezeichnung zurück.
func (g *GuestReviewer) LevelLabel() string {
	switch g.Level {
	case LevelAssociate:
		return "Associate"
	case LevelCandidate:
		return "Candidate"
	default:
		return "Applicant"
	}
}
