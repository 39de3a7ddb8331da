// Package session resolves the signed-in user for the device.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/ritualday/internal/draft"
)

var (
	ErrNotAuthenticated  = errors.New("session: not authenticated")
	ErrRemoteUnavailable = errors.New("session: unavailable")
	ErrInvalidName       = errors.New("session: display name is required")
)

const DefaultTimeout = 3 * time.Second

type Authenticator interface {
	CurrentUser(ctx context.Context) (User, error)
}

type User struct {
	ID   string
	Name string
}

const (
	userIDKey   = "session:user_id"
	userNameKey = "session:user_name"
)

// Local keeps a device identity in the draft KV.
type Local struct {
	kv draft.KV
}

func NewLocal(kv draft.KV) *Local {
	return &Local{kv: kv}
}

// Login signs in as name, reusing the device id when one exists.
func (l *Local) Login(name string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, ErrInvalidName
	}
	id, err := l.kv.Get(userIDKey)
	if err != nil {
		if !errors.Is(err, draft.ErrKeyNotFound) {
			return User{}, err
		}
		id = uuid.NewString()
		if err := l.kv.Set(userIDKey, id); err != nil {
			return User{}, err
		}
	}
	if err := l.kv.Set(userNameKey, name); err != nil {
		return User{}, err
	}
	return User{ID: id, Name: name}, nil
}

func (l *Local) Logout() error {
	if err := l.kv.Delete(userIDKey); err != nil {
		return err
	}
	return l.kv.Delete(userNameKey)
}

func (l *Local) CurrentUser(ctx context.Context) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	id, err := l.kv.Get(userIDKey)
	if err != nil {
		if errors.Is(err, draft.ErrKeyNotFound) {
			return User{}, ErrNotAuthenticated
		}
		return User{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return User{}, fmt.Errorf("%w: malformed user id", ErrNotAuthenticated)
	}
	name, _ := l.kv.Get(userNameKey)
	return User{ID: id, Name: name}, nil
}

// Resolve asks auth for the current user, giving up after timeout. A timeout
// or backend failure maps to ErrRemoteUnavailable.
func Resolve(ctx context.Context, auth Authenticator, timeout time.Duration) (User, error) {
	if auth == nil {
		return User{}, ErrNotAuthenticated
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		user User
		err  error
	}
	done := make(chan result, 1)
	go func() {
		u, err := auth.CurrentUser(ctx)
		done <- result{user: u, err: err}
	}()

	select {
	case r := <-done:
		switch {
		case r.err == nil:
			return r.user, nil
		case errors.Is(r.err, ErrNotAuthenticated):
			return User{}, r.err
		default:
			return User{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, r.err)
		}
	case <-ctx.Done():
		return User{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, ctx.Err())
	}
}

// Static is a fixed identity, useful when the caller already knows the user.
type Static User

func (s Static) CurrentUser(context.Context) (User, error) {
	if s.ID == "" {
		return User{}, ErrNotAuthenticated
	}
	return User(s), nil
}
