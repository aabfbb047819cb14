package models

import "time"

// StatCard is one headline tile on the dashboard.
type StatCard struct {
	Title string `json:"title"`
	Value any    `json:"value"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Activity is a recent inventory movement.
type Activity struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type"`
}

// Dashboard is the /dashboard response body.
type Dashboard struct {
	Stats      []StatCard `json:"stats"`
	Activities []Activity `json:"activities"`
}
