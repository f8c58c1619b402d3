package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kedhare/gallery-cli/internal/session"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runLogin(email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted if omitted)")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session server-side and clear it locally",
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE:  runWhoami,
	}
}

func runLogin(email, password string) error {
	logger := buildLogger()
	client, _ := buildClient(logger)

	var err error

	if email == "" {
		if email, err = promptLine("Email: "); err != nil {
			return err
		}
	}

	if password == "" {
		if password, err = promptLine("Password: "); err != nil {
			return err
		}
	}

	role, err := client.Login(context.Background(), email, password)
	if err != nil {
		return err
	}

	route, err := session.LandingRoute(role)
	if err != nil {
		return err
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{
			"role":  string(role),
			"route": route,
		})
	}

	statusf("Logged in as %s. Landing route: %s\n", role, route)

	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	logger := buildLogger()
	client, _ := buildClient(logger)

	// Best-effort revoke; the session is cleared regardless.
	client.Logout(context.Background())

	statusf("Logged out.\n")

	return nil
}

func runWhoami(_ *cobra.Command, _ []string) error {
	logger := buildLogger()
	_, store := buildClient(logger)

	sess := store.Load()
	if !sess.LoggedIn() {
		return fmt.Errorf("not logged in — run 'gallery-cli login' first")
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{
			"user_id": sess.UserID,
			"role":    string(sess.Role),
		})
	}

	fmt.Printf("User ID: %s\nRole:    %s\n", sess.UserID, sess.Role)

	return nil
}

func newSignupCmd() *cobra.Command {
	var username, email, phone, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			err := client.Register(context.Background(), username, email, phone, password, session.RoleUser)
			if err != nil {
				return err
			}

			statusf("Account created. Run 'gallery-cli login' to sign in.\n")

			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&password, "password", "", "account password")

	for _, required := range []string{"username", "email", "phone", "password"} {
		_ = cmd.MarkFlagRequired(required)
	}

	return cmd
}

func newForgotPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset code",
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			msg, err := client.ForgotPassword(context.Background(), email)
			if err != nil {
				return err
			}

			statusf("%s\n", msg)

			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newResetPasswordCmd() *cobra.Command {
	var email, otp, newPassword string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Reset the password with the emailed code",
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := buildLogger()
			client, _ := buildClient(logger)

			msg, err := client.ResetPassword(context.Background(), email, otp, newPassword)
			if err != nil {
				return err
			}

			statusf("%s\n", msg)

			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&otp, "otp", "", "reset code from the email")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "new password")

	for _, required := range []string{"email", "otp", "new-password"} {
		_ = cmd.MarkFlagRequired(required)
	}

	return cmd
}

// promptLine reads one line from stdin with a prompt on stderr.
func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}

	return strings.TrimSpace(line), nil
}
