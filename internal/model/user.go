// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered player account.
//
// We use GitHub OAuth as the identity provider, so the primary external
// identifier is the GitHub user ID (an integer). We still generate our own
// internal string ID (xid) so our primary keys aren't tied to a third
// party's numbering scheme.
//
// GrassPower is the virtual currency earned from GitHub contributions and
// spent on discovering and feeding UMA. It is never negative: every debit
// goes through a conditional UPDATE that refuses to overdraw, and credits
// that would push it below zero (downward-revised contribution counts)
// clamp at zero.
type User struct {
	ID               string    `json:"id"                db:"id"`
	GitHubID         int64     `json:"github_id"         db:"github_id"` // GitHub's numeric user ID
	Login            string    `json:"login"             db:"login"`     // GitHub username
	AvatarURL        string    `json:"avatar_url"        db:"avatar_url"`
	GrassPower       int       `json:"grass_power"       db:"grass_power"`
	TotalDiscoveries int       `json:"total_discoveries" db:"total_discoveries"`
	CreatedAt        time.Time `json:"created_at"        db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"        db:"updated_at"`
}
