// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account that owns posts. PostIDs is the owner-side
// back-reference set; it is only ever written in the same transaction as
// the corresponding posts-table write.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	AvatarKey    string
	PostIDs      []string
	CreatedAt    time.Time
}
