package session

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/view"
)

type Role string

const (
	Admin    Role = "admin"
	Hospital Role = "hospital"
)

func (r Role) Valid() bool {
	return r == Admin || r == Hospital
}

// Credential is one entry of the static allow-list.
type Credential struct {
	Username   string
	Password   string
	Role       Role
	HospitalID string
}

// DefaultCredentials is the built-in allow-list.
func DefaultCredentials(hospitalID string) []Credential {
	return []Credential{
		{Username: "admin", Password: "admin", Role: Admin},
		{Username: "user", Password: "user", Role: Hospital, HospitalID: hospitalID},
	}
}

func authenticate(creds []Credential, username, password string) (Credential, error) {
	for _, c := range creds {
		u := subtle.ConstantTimeCompare([]byte(c.Username), []byte(username))
		p := subtle.ConstantTimeCompare([]byte(c.Password), []byte(password))
		if u&p == 1 {
			return c, nil
		}
	}

	return Credential{}, fmt.Errorf("%w: invalid credentials", pkgerrors.ErrUnauthorized)
}

// Record is the persisted part of a session.
type Record struct {
	Token      string    `json:"token"`
	Username   string    `json:"username"`
	Role       Role      `json:"role"`
	HospitalID string    `json:"hospitalId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (r Record) marshal() ([]byte, error) {
	return json.Marshal(r)
}

func unmarshal(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %w", pkgerrors.ErrInvalidData, err)
	}
	if r.Token == "" || !r.Role.Valid() {
		return Record{}, pkgerrors.ErrInvalidData
	}

	return r, nil
}

// Session is created on login and torn down on logout. It owns the live view
// for its role.
type Session struct {
	Record
	view *view.View
}

func (s *Session) View() *view.View {
	return s.view
}

// Authorize checks the session role and, for hospital sessions, that the
// requested hospital is the session's own.
func (s *Session) Authorize(role Role, hospitalID string) error {
	if s.Role != role {
		return fmt.Errorf("%w: %s session cannot access %s views", pkgerrors.ErrForbidden, s.Role, role)
	}
	if role == Hospital && hospitalID != "" && hospitalID != s.HospitalID {
		return fmt.Errorf("%w: hospital %s", pkgerrors.ErrForbidden, hospitalID)
	}

	return nil
}

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)

	return s, ok && s != nil
}
