package reviewers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"turing-review/config"
	"turing-review/models"
)

// GuestRunner führt Reviews für einen Community-Reviewer aus.
//
// Prompt-Modus: nutzt unsere Plattform-Credentials für eines der
// Staff-Backends, injiziert aber die Persona des Registranten.
// API-Modus: ruft das selbst deklarierte OpenAI-kompatible Endpoint des
// Registranten mit dessen entschlüsseltem Key auf.
//
// Beide Modi laufen unter demselben konfigurierbaren Timeout — der Reviewer
// kontrolliert die Infrastruktur nicht bzw. das Endpoint ist nicht
// vertrauenswürdig, also erzwingt die Plattform die Frist.
type GuestRunner struct {
	GuestID uint

	inner   backendReviewer
	timeout time.Duration
}

// NewGuestRunner baut die Laufzeitinstanz aus der Registrierung. Der API-Key
// wird bereits entschlüsselt übergeben; die Entschlüsselung selbst gehört
// dem Crypto-Service.
func NewGuestRunner(gr *models.GuestReviewer, cfg *config.Config, apiKey string, logger *zap.Logger) (*GuestRunner, error) {
	var caller Caller

	switch gr.Mode {
	case models.ModePrompt:
		switch gr.BackendModel {
		case ProviderLogician:
			caller = NewChatClient(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.LogicianModel, logger)
		case ProviderInnovator:
			caller = NewChatClient(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.InnovatorModel, logger)
		case ProviderTechnician:
			caller = NewChatClient(cfg.DeepSeekBaseURL, cfg.DeepSeekAPIKey, cfg.TechnicianModel, logger)
		default:
			return nil, fmt.Errorf("unknown backend model %q for guest reviewer %d", gr.BackendModel, gr.ID)
		}
	case models.ModeAPI:
		caller = NewChatClient(gr.APIBaseURL, apiKey, gr.APIModelName, logger)
	default:
		return nil, fmt.Errorf("unknown guest reviewer mode %q", gr.Mode)
	}

	return &GuestRunner{
		GuestID: gr.ID,
		inner: backendReviewer{
			name:        gr.DisplayName,
			provider:    "guest_" + gr.Mode,
			personality: gr.Personality,
			caller:      caller,
		},
		timeout: cfg.GuestAPITimeout,
	}, nil
}

// Name gibt den Anzeigenamen des Reviewers zurück.
func (g *GuestRunner) Name() string { return g.inner.name }

// Provider gibt "guest_prompt" bzw. "guest_api" zurück.
func (g *GuestRunner) Provider() string { return g.inner.provider }

// Review führt das Gutachten unter dem Community-Timeout aus. Ein Ablauf der
// Frist wirkt wie ein Backend-Fehler und betrifft nur diesen einen Aufruf.
func (g *GuestRunner) Review(ctx context.Context, title, abstract, keywords, content, authors string) (*ReviewResult, string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.inner.Review(ctx, title, abstract, keywords, content, authors)
}
