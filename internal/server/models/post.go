package models

import "time"

// Post is a content record created by exactly one user. ImageKey points at
// the uploaded artifact in object storage; it is released after the post
// record is deleted.
type Post struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	ImageKey  string
	CreatedAt time.Time
}
