package model

import "time"

// DailyContribution records one observation of a user's GitHub
// contribution count for one calendar day, together with the grass power
// already credited for that day.
//
// (UserID, Date) is unique — this is the invariant that prevents
// double-crediting. A re-sync on the same day compares the upstream count
// with the stored one and applies only the reward difference.
//
// Date is the UTC calendar day in "2006-01-02" form. Using a string key
// rather than a timestamp keeps the uniqueness comparison exact.
type DailyContribution struct {
	ID       string    `json:"id"       db:"id"`
	UserID   string    `json:"-"        db:"user_id"`
	Date     string    `json:"date"     db:"date"`
	Count    int       `json:"count"    db:"count"`
	Reward   int       `json:"reward"   db:"reward"`
	SyncedAt time.Time `json:"synced_at" db:"synced_at"`
}
