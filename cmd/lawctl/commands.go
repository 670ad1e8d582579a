package main

import (
	"bufio"
	"fmt"
	"io"
	"lawconnect/db"
	"lawconnect/models"
	"lawconnect/services"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"
)

func newCreateUserCmd() *cobra.Command {
	var role, specialization, license, firm string
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := openDB(); err != nil {
				return err
			}
			defer db.Close()

			reader := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "=== Create New User ===")
			name := prompt(reader, out, "Name: ")
			email := prompt(reader, out, "Email: ")
			if role == models.RoleLawyer {
				if specialization == "" {
					specialization = prompt(reader, out, "Specialization: ")
				}
				if license == "" {
					license = prompt(reader, out, "License: ")
				}
			}
			password, err := readPassword(reader, out, "Password: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword(reader, out, "Confirm password: ")
			if err != nil {
				return err
			}

			user, err := services.RegisterUser(cmd.Context(), db.DB, services.RegistrationInput{
				Username:        name,
				Email:           email,
				Password:        password,
				ConfirmPassword: confirm,
				Role:            role,
				Specialization:  specialization,
				License:         license,
				Firm:            firm,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nUser created\n  ID: %s\n  Email: %s\n  Role: %s\n", user.ID, user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", models.RoleClient, "client or lawyer")
	cmd.Flags().StringVar(&specialization, "specialization", "", "lawyer specialization")
	cmd.Flags().StringVar(&license, "license", "", "lawyer license number")
	cmd.Flags().StringVar(&firm, "firm", "", "lawyer firm")
	return cmd
}

func prompt(r *bufio.Reader, w io.Writer, label string) string {
	fmt.Fprint(w, label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

// readPassword hides input on a terminal and reads a plain line otherwise
func readPassword(r *bufio.Reader, w io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(r, w, label), nil
	}
	fmt.Fprint(w, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load users and cases from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			fixtures, err := services.LoadFixtures(f)
			if err != nil {
				return err
			}

			if _, err := openDB(); err != nil {
				return err
			}
			defer db.Close()

			var res services.SeedResult
			err = db.DB.Transaction(func(tx *gorm.DB) error {
				res, err = services.SeedFixtures(cmd.Context(), tx, fixtures)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users (%d already present), %d cases\n", res.Users, res.Skipped, res.Cases)
			return nil
		},
	}
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired sessions and flag overdue invoices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := openDB(); err != nil {
				return err
			}
			defer db.Close()
			n, err := services.CleanupExpiredSessions(db.DB)
			if err != nil {
				return err
			}
			overdue, err := services.MarkOverdueInvoices(db.DB, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired sessions, marked %d invoices overdue\n", n, overdue)
			return nil
		},
	}
}

func newExportInvoicesCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "export-invoices <lawyer-email> <out.xlsx>",
		Short: "Write a lawyer's invoices to a spreadsheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := openDB(); err != nil {
				return err
			}
			defer db.Close()
			return exportInvoices(db.DB, args[0], args[1], status)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only invoices with this status")
	return cmd
}

func exportInvoices(database *gorm.DB, email, path, status string) error {
	var lawyer models.User
	if err := database.Where("email = ? AND role = ?", strings.ToLower(email), models.RoleLawyer).First(&lawyer).Error; err != nil {
		return fmt.Errorf("no lawyer with email %s", email)
	}
	invoices, err := services.ListInvoices(database, &lawyer, services.ListFilter{Status: status})
	if err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := services.ExportInvoicesXLSX(out, invoices); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Printf("Exported %d invoices to %s\n", len(invoices), path)
	return nil
}
