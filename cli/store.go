package cli

import (
	"context"
	"encoding/json"
	"errors"

	pkgerrors "github.com/absmach/cvdash/pkg/errors"
	"github.com/absmach/cvdash/pkg/storage"
)

const sessionKey = "cli/session"

var errNotLoggedIn = errors.New("not logged in, run login first")

// Credentials is the CLI's persisted login.
type Credentials struct {
	Token      string `json:"token"`
	Role       string `json:"role"`
	HospitalID string `json:"hospitalId,omitempty"`
	Username   string `json:"username,omitempty"`
}

func saveCredentials(ctx context.Context, slots storage.SlotRepository, c Credentials) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	return slots.Set(ctx, sessionKey, data)
}

func loadCredentials(ctx context.Context, slots storage.SlotRepository) (Credentials, error) {
	data, err := slots.Get(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return Credentials{}, errNotLoggedIn
		}

		return Credentials{}, err
	}

	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil || c.Token == "" {
		return Credentials{}, errNotLoggedIn
	}

	return c, nil
}

func clearCredentials(ctx context.Context, slots storage.SlotRepository) error {
	err := slots.Delete(ctx, sessionKey)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return nil
	}

	return err
}
