package models

import "strings"

// User is a chat participant as the backend serializes it
type User struct {
	ID         string `json:"_id" validate:"required"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	ProfilePic string `json:"profilePic"`
}

// FullName returns "first last", trimmed when either part is missing
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
