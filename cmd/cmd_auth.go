package main

import (
	"bufio"
	"fmt"
	"strings"

	"fitnest/client/internal/auth"

	"github.com/spf13/cobra"
)

var loginUser, loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		if loginUser == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Username: ")
			loginUser = readLine(in)
		}
		if loginPassword == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			loginPassword = readLine(in)
		}

		sess, err := auth.Login(cmd.Context(), current.api, current.store, loginUser, loginPassword)
		if err != nil {
			return err
		}
		current.useSession(cmd.Context(), sess)
		fmt.Fprintln(cmd.OutOrStdout(), current.t("auth.logged_in", sess.Username, sess.UserID))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := auth.Logout(cmd.Context(), current.store); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), current.t("auth.logged_out"))
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := current.requireSession(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), current.t("auth.logged_in", current.session.Username, current.session.UserID))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUser, "username", "u", "", "account username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password (prompted when empty)")
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
