package models

import (
	"time"

	"github.com/google/uuid"
)

func WithUsername(username string) UserOption {
	return func(u *User) { u.Username = username }
}

func WithEmail(email string) UserOption {
	return func(u *User) { u.Email = email }
}

func WithPassword(password string) UserOption {
	return func(u *User) { u.Password = password }
}

func WithIsActive(active bool) UserOption {
	return func(u *User) { u.IsActive = active }
}

func WithEmailVerified(verified bool) UserOption {
	return func(u *User) { u.IsEmailVerified = verified }
}

func WithRoleID(roleID uuid.UUID) UserOption {
	return func(u *User) { u.RoleID = roleID }
}

// Profile
func WithName(name string) UserOption {
	return func(u *User) { u.Profile.Name = name }
}

func WithBio(bio string) UserOption {
	return func(u *User) { u.Profile.Bio = bio }
}

func WithAvatarURL(url string) UserOption {
	return func(u *User) { u.Profile.AvatarURL = url }
}

func WithLocation(location string) UserOption {
	return func(u *User) { u.Profile.Location = location }
}

func WithWebsite(website string) UserOption {
	return func(u *User) { u.Profile.Website = website }
}

func WithPronouns(pronouns string) UserOption {
	return func(u *User) { u.Profile.Pronouns = pronouns }
}

// Stats
func WithLastSeen(lastSeen time.Time) UserOption {
	return func(u *User) { u.Stats.LastSeen = lastSeen }
}
