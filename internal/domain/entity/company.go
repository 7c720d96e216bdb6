package entity

import "time"

// Company owns users, expenses and approval rules. All amounts on an
// expense are converted into the company currency before rule matching.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country,omitempty"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}
