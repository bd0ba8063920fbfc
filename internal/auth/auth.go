package auth

import (
	"context"
	"errors"
	"strings"
)

var ErrNoSession = errors.New("no stored session")

// Context is the bearer token and role handed to every component that talks to the backend.
type Context struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

func (c Context) IsZero() bool {
	return strings.TrimSpace(c.Token) == ""
}

func (c Context) Bearer() string {
	return "Bearer " + strings.TrimSpace(c.Token)
}

// Preferences are free-text fields kept between runs for the operator's convenience.
type Preferences struct {
	Operator string `json:"operator"`
	Station  string `json:"station"`
}

type Session struct {
	Auth        Context     `json:"auth"`
	Preferences Preferences `json:"preferences"`
}

type Store interface {
	// Load returns ErrNoSession when nothing was saved yet.
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}
