// Package models defines the records persisted by recipekeeper.
package models

import "time"

// Account is an authenticatable identity. Password holds the encoded hash
// produced by cryptox, never the plaintext.
type Account struct {
	ID          string
	Email       string
	Name        string
	Password    string
	IsActive    bool
	IsStaff     bool
	IsSuperuser bool
	LastLogin   *time.Time
	CreatedAt   time.Time
}

func (a *Account) String() string {
	return a.Email
}

// AccountFlags are the role and status switches of an Account.
type AccountFlags struct {
	IsActive    bool
	IsStaff     bool
	IsSuperuser bool
}

func (a *Account) Flags() AccountFlags {
	return AccountFlags{IsActive: a.IsActive, IsStaff: a.IsStaff, IsSuperuser: a.IsSuperuser}
}
