package models

import (
	"fmt"
)

// User represents an account whose Discogs collection and inventory are synced.
//
// Credentials are either a personal access token or a consumer key/secret pair;
// the Discogs client validates that exactly one shape is configured.
type User struct {
	base
	username       string
	personalToken  string
	consumerKey    string
	consumerSecret string
}

// NewUser creates a User with the given sequence and Discogs username.
func NewUser(sequence int, username string) *User {
	return &User{base: newBase(sequence), username: username}
}

func (u *User) Username() string { return u.username }

func (u *User) PersonalToken() string           { return u.personalToken }
func (u *User) SetPersonalToken(token string)   { u.personalToken = token }
func (u *User) ConsumerKey() string             { return u.consumerKey }
func (u *User) ConsumerSecret() string          { return u.consumerSecret }
func (u *User) SetConsumerPair(key, sec string) { u.consumerKey, u.consumerSecret = key, sec }

// HasCredentials reports whether any Discogs credential is configured.
func (u *User) HasCredentials() bool {
	return u.personalToken != "" || (u.consumerKey != "" && u.consumerSecret != "")
}

// Validate checks that the user has a Discogs username.
func (u *User) Validate() error {
	if u.username == "" {
		return fmt.Errorf("username is required")
	}
	return nil
}
