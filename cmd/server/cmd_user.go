package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"seatdesk/internal/models"
	"seatdesk/internal/services"
	"seatdesk/internal/store"
)

var userFlags struct {
	username    string
	role        string
	permissions []string
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage staff and admin accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account, prompting for its password",
	RunE:  runUserAdd,
}

var userResetCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password for an account",
	RunE:  runUserReset,
}

func init() {
	f := userAddCmd.Flags()
	f.StringVar(&userFlags.username, "username", "", "Account username (required)")
	f.StringVar(&userFlags.role, "role", models.RoleStaff, "admin or staff")
	f.StringSliceVar(&userFlags.permissions, "permissions", nil, "Staff permissions, comma separated (default set when omitted)")
	_ = userAddCmd.MarkFlagRequired("username")

	userResetCmd.Flags().StringVar(&userFlags.username, "username", "", "Account username (required)")
	_ = userResetCmd.MarkFlagRequired("username")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userResetCmd)
}

func runUserAdd(cmd *cobra.Command, _ []string) error {
	password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	in := services.NewUserInput{Username: userFlags.username, Password: password, Role: userFlags.role}
	if cmd.Flags().Changed("permissions") {
		in.Permissions = &userFlags.permissions
	}
	user, err := services.NewUserService(rt.store).Create(cmd.Context(), in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (%s)\n", user.Role, user.Username, user.ID)
	return nil
}

func runUserReset(cmd *cobra.Command, _ []string) error {
	password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	rt, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	user, err := rt.store.GetUserByUsername(cmd.Context(), strings.TrimSpace(userFlags.username))
	if errors.Is(err, store.ErrNotFound) {
		return errors.Errorf("no user named %q", userFlags.username)
	}
	if err != nil {
		return err
	}
	if err := services.NewUserService(rt.store).SetPassword(cmd.Context(), user.ID, password); err != nil {
		return err
	}
	if err := rt.store.DeleteUserSessions(cmd.Context(), user.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %q\n", user.Username)
	return nil
}

// readPassword prompts twice on a terminal. Piped input supplies the
// password on its first line.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		first, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", errors.Wrap(err, "read password")
		}
		fmt.Fprint(prompt, "Repeat password: ")
		second, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", errors.Wrap(err, "read password")
		}
		if string(first) != string(second) {
			return "", errors.New("passwords do not match")
		}
		return string(first), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(err, "read password")
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password")
	}
	return password, nil
}
