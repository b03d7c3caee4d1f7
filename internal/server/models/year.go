package models

import "time"

type Year struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Units     []Unit
}

type Unit struct {
	ID        string
	Name      string
	YearID    string
	CreatedAt time.Time
}
