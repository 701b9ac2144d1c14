package leaguehub

import (
	"strings"
	"time"
)

type introspectRequest struct {
	Token string `json:"token"`
}

// Introspection is the hub's verdict on one captain token. Exp is a unix
// timestamp; zero means the hub did not report an expiry.
type Introspection struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Exp    int64  `json:"exp"`
}

func (i Introspection) expired(now time.Time) bool {
	return i.Exp > 0 && now.Unix() >= i.Exp
}

type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Handicap int    `json:"handicap,omitempty"`
}

// TeamRoster is the player pool the hub registered for one team's match
// night. FrozenAt is set once the registration window has closed.
type TeamRoster struct {
	TeamID   string     `json:"team_id"`
	TeamName string     `json:"team_name"`
	Players  []Player   `json:"players"`
	FrozenAt *time.Time `json:"frozen_at,omitempty"`
}

// PlayerIDs flattens the roster into the id list the engine freezes at
// match start. Blank entries are dropped.
func (r TeamRoster) PlayerIDs() []string {
	out := make([]string, 0, len(r.Players))
	for _, item := range r.Players {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		out = append(out, id)
	}
	return out
}

type rosterEnvelope struct {
	Data TeamRoster `json:"data"`
}
