package model

import (
	"time"

	"github.com/google/uuid"
)

// Link represents a short code mapped to a destination URL.
// A link with IsActive=false or a past ExpiresAt resolves as not found;
// the redirect path never distinguishes the three cases.
type Link struct {
	ID           uuid.UUID  `json:"id"`
	ShortCode    string     `json:"short_code"`
	OriginalURL  string     `json:"original_url"`
	PasswordHash *string    `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	UTM          UTMParams  `json:"utm_parameters"`
	ClickCount   int64      `json:"click_count"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Protected reports whether resolving the link requires a password.
func (l *Link) Protected() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}

// UTMParams holds the five marketing attribution fields. An empty
// string means the field is absent.
type UTMParams struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Term     string `json:"utm_term,omitempty"`
	Content  string `json:"utm_content,omitempty"`
}

// IsZero reports whether no field is set.
func (u UTMParams) IsZero() bool {
	return u == UTMParams{}
}

// CreateLinkRequest represents the request body for creating a link.
type CreateLinkRequest struct {
	URL         string     `json:"url" binding:"required"`
	CustomAlias string     `json:"custom_alias,omitempty"`
	Password    string     `json:"password,omitempty"`
	ExpiresIn   int        `json:"expires_in,omitempty"` // days, 0 means never
	UTM         *UTMParams `json:"utm_parameters,omitempty"`
}

// CreateLinkResponse represents the response for a created link.
type CreateLinkResponse struct {
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// LinkResponse represents the full link metadata response.
type LinkResponse struct {
	ShortCode   string     `json:"short_code"`
	OriginalURL string     `json:"original_url"`
	ShortURL    string     `json:"short_url"`
	Protected   bool       `json:"protected"`
	UTM         *UTMParams `json:"utm_parameters,omitempty"`
	ClickCount  int64      `json:"click_count"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   string     `json:"created_at"`
	ExpiresAt   string     `json:"expires_at,omitempty"`
}

// UpdateLinkRequest represents a partial owner edit. Nil fields are
// left untouched. An explicit empty Password clears protection.
type UpdateLinkRequest struct {
	URL       *string    `json:"url,omitempty"`
	Password  *string    `json:"password,omitempty"`
	ExpiresIn *int       `json:"expires_in,omitempty"` // days, 0 clears the expiry
	UTM       *UTMParams `json:"utm_parameters,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
}

// ErrorResponse represents an API error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
