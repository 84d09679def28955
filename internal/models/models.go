package models

import (
	"time"
)

// Segment is one slice of the prize wheel. Value is the credit in whole
// KSH; a zero value is the "Better Luck" slice.
type Segment struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

type EntryKind string

const (
	EntryBonus      EntryKind = "bonus"
	EntrySpin       EntryKind = "spin"
	EntryDeposit    EntryKind = "deposit"
	EntryWithdrawal EntryKind = "withdrawal"
)

// Entry is one immutable balance-affecting event. Withdrawal entries carry
// a negative amount; spin entries carry the gross win (possibly zero).
type Entry struct {
	ID     string    `json:"id"`
	Amount int       `json:"amount"`
	Kind   EntryKind `json:"kind"`
	At     time.Time `json:"at"`
}

// SavedUser is the record persisted under the fixed session key so a
// returning visitor can be restored without re-entering credentials.
type SavedUser struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

// SpinRecord is the audit row written for every resolved spin.
type SpinRecord struct {
	ID         int64     `json:"id"`
	SpinID     string    `json:"spinId"`
	Phone      string    `json:"phone"`
	Label      string    `json:"label"`
	Amount     int       `json:"amount"`
	RawDegrees float64   `json:"rawDegrees"`
	CreatedAt  time.Time `json:"createdAt"`
}
