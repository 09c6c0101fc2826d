package cli

import (
	"time"

	"github.com/absmach/cvdash/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10

	dash      *Client
	slots     storage.SlotRepository
	pollEvery = 2 * time.Second
)

func SetClient(c *Client) {
	dash = c
}

// SetSessionStore sets where the login is kept between invocations.
func SetSessionStore(s storage.SlotRepository) {
	slots = s
}

func SetPollInterval(d time.Duration) {
	if d > 0 {
		pollEvery = d
	}
}

// authenticated loads the stored login and attaches its token to the client.
func authenticated(cmd *cobra.Command) (Credentials, bool) {
	c, err := loadCredentials(cmd.Context(), slots)
	if err != nil {
		logErrorCmd(*cmd, err)

		return Credentials{}, false
	}
	dash.SetToken(c.Token)

	return c, true
}

func hospitalPath(c Credentials, suffix string) string {
	return "/api/hospital/" + c.HospitalID + suffix
}

func viewPath(c Credentials) string {
	if c.Role == "admin" {
		return "/api/admin/view"
	}

	return hospitalPath(c, "/view")
}

func startPath(c Credentials) string {
	if c.Role == "admin" {
		return "/api/start-training"
	}

	return hospitalPath(c, "/start-training")
}
