package models

import "time"

// Entity is a tracked organization whose media coverage is analyzed.
// Owned by the document store; read-only everywhere else.
type Entity struct {
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	OfficialSite string    `json:"official_site" db:"official_site"`
}
