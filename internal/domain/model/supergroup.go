package model

import "time"

// Supergroup is a trusted sister service participating in federation.
// Tag is the short service identifier used as the Origin of imported
// entities; Token authenticates inbound requests from the peer.
type Supergroup struct {
	ID        int64
	Name      string
	Tag       string
	BaseURL   string
	Token     string
	CreatedAt time.Time
}
