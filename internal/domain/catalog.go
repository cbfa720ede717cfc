package domain

import "time"

// Title is a bibliographic work. Volumes are its physical copies.
type Title struct {
	ID        string
	Title     string
	Author    string
	ISBN      *string
	CreatedAt time.Time
}
