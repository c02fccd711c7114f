package models

import "time"

// Branch represents a named line of table history
type Branch struct {
	Name      string    `json:"name"`
	IsCurrent bool      `json:"is_current"`
	CreatedAt time.Time `json:"created_at"`
}
