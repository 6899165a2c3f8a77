package model

import (
	"time"

	"github.com/google/uuid"
)

// ClickEvent is one append-only record per successful resolution.
// Country is left empty unless an external geolocation enricher fills
// it in; nothing in the redirect path computes it.
type ClickEvent struct {
	ID        int64     `json:"id"`
	LinkID    uuid.UUID `json:"link_id"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
	Country   string    `json:"country,omitempty"`
	UTM       UTMParams `json:"utm_parameters"`
	ClickedAt time.Time `json:"clicked_at"`
}

// LinkClickedEvent is the fan-out payload published after a successful
// resolution. Link carries the post-increment record so downstream
// webhook consumers see the fresh click count.
type LinkClickedEvent struct {
	Event string     `json:"event"`
	Link  Link       `json:"link"`
	Click ClickEvent `json:"click"`
}

// EventLinkClicked is the routing key and event name for click fan-out.
const EventLinkClicked = "link.clicked"
