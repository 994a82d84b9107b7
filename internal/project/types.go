package project

import "time"

// Project is one customer's WhatsApp integration. Inbound events are routed
// to a project by its WhatsApp phone number id.
type Project struct {
	ID            int64     `json:"id"`
	Name          string    `json:"project_name"`
	PhoneNumberID string    `json:"whatsapp_phone_number_id"`
	WhatsAppToken string    `json:"whatsapp_token,omitempty"`
	SystemPrompt  string    `json:"system_prompt,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateInput carries the fields for a new project. WhatsAppToken and
// SystemPrompt may be empty; the relay then falls back to the process-wide
// token and the default prompt.
type CreateInput struct {
	Name          string `json:"project_name"`
	PhoneNumberID string `json:"whatsapp_phone_number_id"`
	WhatsAppToken string `json:"whatsapp_token"`
	SystemPrompt  string `json:"system_prompt"`
}

// UpdateInput replaces all mutable fields of a project. Changing
// PhoneNumberID silently redirects future inbound routing; that is the
// caller's responsibility.
type UpdateInput struct {
	Name          string `json:"project_name"`
	PhoneNumberID string `json:"whatsapp_phone_number_id"`
	WhatsAppToken string `json:"whatsapp_token"`
	SystemPrompt  string `json:"system_prompt"`
}
