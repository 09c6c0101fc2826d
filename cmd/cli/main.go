package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/absmach/cvdash"
	"github.com/absmach/cvdash/cli"
	"github.com/absmach/cvdash/pkg/storage/badger"
	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		remoteURL  string
		storePath  string
		db         *badger.Database
	)

	rootCmd := &cobra.Command{
		Use:   "cvdash-cli",
		Short: "CVD dashboard CLI",
		Long:  `cvdash-cli is a command line interface for the CVD risk federated learning dashboard.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg := cvdash.DefaultConfig()
			loaded, err := cvdash.LoadConfig(configPath)
			switch {
			case err == nil:
				cfg = *loaded
			case errors.Is(err, os.ErrNotExist):
			default:
				return err
			}

			if remoteURL != "" {
				cfg.Remote.URL = remoteURL
			}
			if storePath != "" {
				cfg.Session.StorePath = storePath
			}

			db, err = badger.NewDatabase(cfg.Session.StorePath)
			if err != nil {
				return err
			}

			cli.SetClient(cli.NewClient(cfg.Remote.URL, cfg.Remote.TLSVerification, cfg.RemoteTimeout()))
			cli.SetSessionStore(badger.NewSlotRepository(db))
			cli.SetPollInterval(cfg.PollInterval())

			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if db != nil {
				_ = db.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Config file")
	rootCmd.PersistentFlags().StringVarP(&remoteURL, "url", "u", "", "Dashboard service URL")
	rootCmd.PersistentFlags().StringVar(&storePath, "session-dir", "", "Session store directory")

	rootCmd.AddCommand(
		cli.NewLoginCmd(),
		cli.NewLogoutCmd(),
		cli.NewWhoamiCmd(),
		cli.NewAdminCmd(),
		cli.NewHospitalCmd(),
		cli.NewStartCmd(),
		cli.NewViewCmd(),
		cli.NewWatchCmd(),
		cli.NewDismissCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}

	return filepath.Join(dir, "cvdash", "config.toml")
}
