// Command lawctl is the operator CLI: account creation, fixtures and
// maintenance against the same database the server uses.
package main

import (
	"fmt"
	"lawconnect/config"
	"lawconnect/db"
	"lawconnect/models"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lawctl",
		Short:         "LawConnect administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCreateUserCmd(), newSeedCmd(), newCleanupCmd(), newExportInvoicesCmd())
	return root
}

// openDB loads config, connects and migrates. Callers defer db.Close.
func openDB() (*config.Config, error) {
	cfg := config.Load()
	if err := db.Initialize(db.Options{
		Path:        cfg.DBPath,
		TursoURL:    cfg.TursoDatabaseURL,
		TursoToken:  cfg.TursoAuthToken,
		Environment: "production", // keep gorm quiet on the terminal
	}); err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		db.Close()
		return nil, err
	}
	return cfg, nil
}
