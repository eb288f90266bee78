// Package model defines the database entities for songvault.
package model

import "time"

// User is a registered account. Email is the login identifier and is
// stored lowercase; Password holds the bcrypt hash, never plaintext.
type User struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	About     string    `json:"about"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Song is one row of an uploaded music catalog. ImportId groups the
// songs that arrived in the same CSV upload.
type Song struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserId    int       `json:"userId" gorm:"index;not null"`
	Title     string    `json:"title" gorm:"not null"`
	Artist    string    `json:"artist" gorm:"not null"`
	Genre     string    `json:"genre"`
	Year      int       `json:"year"`
	ImportId  string    `json:"importId" gorm:"index"`
	CreatedAt time.Time `json:"createdAt"`
}

// Setting is a key/value application setting.
type Setting struct {
	Id    int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Key   string `json:"key" gorm:"uniqueIndex"`
	Value string `json:"value"`
}
