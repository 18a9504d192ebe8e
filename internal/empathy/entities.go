// Package empathy implements support-ticket empathy mapping: a phased
// pipeline that ingests tickets, enforces consent, redacts PII, analyzes
// each ticket into empathy-map quadrants, and synthesizes a single map
// for the batch.
package empathy

import "time"

// ConsentStatus is the lifecycle state of a consent record.
type ConsentStatus string

const (
	ConsentPending ConsentStatus = "pending"
	ConsentGranted ConsentStatus = "granted"
	ConsentDenied  ConsentStatus = "denied"
	ConsentExpired ConsentStatus = "expired"
	ConsentRevoked ConsentStatus = "revoked"
)

// Ticket is one support ticket queued for analysis.
type Ticket struct {
	ID          string    `yaml:"id" json:"id"`
	Title       string    `yaml:"title" json:"title"`
	Description string    `yaml:"description" json:"description"`
	Category    string    `yaml:"category,omitempty" json:"category,omitempty"`
	Priority    string    `yaml:"priority,omitempty" json:"priority,omitempty"`
	Status      string    `yaml:"status,omitempty" json:"status,omitempty"`
	CustomerID  string    `yaml:"customer_id" json:"customer_id"`
	CreatedAt   time.Time `yaml:"created_at,omitempty" json:"created_at,omitempty"`
}

// ConsentRecord is one customer's consent for ticket analysis.
type ConsentRecord struct {
	ConsentID string        `yaml:"consent_id" json:"consent_id"`
	UserID    string        `yaml:"user_id" json:"user_id"`
	Scope     []string      `yaml:"scope,omitempty" json:"scope,omitempty"`
	Status    ConsentStatus `yaml:"status" json:"status"`
	GrantedAt time.Time     `yaml:"granted_at,omitempty" json:"granted_at,omitempty"`
	ExpiresAt *time.Time    `yaml:"expires_at,omitempty" json:"expires_at,omitempty"`
	RevokedAt *time.Time    `yaml:"revoked_at,omitempty" json:"revoked_at,omitempty"`
}

// ValidAt reports whether the record permits analysis at the given time.
// Only a granted, unrevoked, unexpired record is valid.
func (r *ConsentRecord) ValidAt(now time.Time) bool {
	if r == nil || r.Status != ConsentGranted {
		return false
	}
	if r.RevokedAt != nil && !r.RevokedAt.After(now) {
		return false
	}
	if r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
		return false
	}
	return true
}

// Quadrant is one empathy-map quadrant (say, think, do, feel).
type Quadrant struct {
	Type       string   `json:"type"`
	Insights   []string `json:"insights"`
	Quotes     []string `json:"quotes,omitempty"`
	Confidence float64  `json:"confidence"`
}

// Map is a synthesized empathy map for a ticket batch.
type Map struct {
	Say   Quadrant `json:"say"`
	Think Quadrant `json:"think"`
	Do    Quadrant `json:"do"`
	Feel  Quadrant `json:"feel"`

	Goals       []string `json:"goals"`
	Pains       []string `json:"pains"`
	Gains       []string `json:"gains"`
	LatentNeeds []string `json:"latent_needs"`

	TicketCount int       `json:"ticket_count"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}
