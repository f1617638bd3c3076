package domain

import "fmt"

// ActionType names the side effect an interactive component requests.
type ActionType string

const (
	// ActionNavigate asks the host to go somewhere. Payload: destination.
	ActionNavigate ActionType = "NAVIGATE"

	// ActionPatchState merges the payload into the tree at Path.
	ActionPatchState ActionType = "PATCH_STATE"

	// ActionTriggerEffect fires a cosmetic effect. Payload: {"effect": Effect}.
	ActionTriggerEffect ActionType = "TRIGGER_EFFECT"

	// ActionSubmitForm collects every input of the live tree and feeds it back
	// to the model as the next prompt.
	ActionSubmitForm ActionType = "SUBMIT_FORM"
)

// Action is emitted by interactive components and consumed synchronously by
// the orchestrator. It is never persisted.
type Action struct {
	Type    ActionType `json:"type" mapstructure:"type"`
	Payload any        `json:"payload,omitempty" mapstructure:"payload"`
	Path    string     `json:"path,omitempty" mapstructure:"path"`
}

func (a Action) String() string {
	if a.Path == "" {
		return string(a.Type)
	}
	return fmt.Sprintf("%s@%s", a.Type, a.Path)
}

// Effect is a one-shot cosmetic effect.
type Effect string

const (
	EffectConfetti Effect = "CONFETTI"
	EffectSnow     Effect = "SNOW"
)

// Effect extracts payload.effect of a TRIGGER_EFFECT action.
func (a Action) Effect() (Effect, bool) {
	m, ok := a.Payload.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := m["effect"].(string)
	if !ok {
		return "", false
	}
	switch e := Effect(s); e {
	case EffectConfetti, EffectSnow:
		return e, true
	}
	return "", false
}
