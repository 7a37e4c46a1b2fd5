package main

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"

	"fitnest/client/internal/auth"
	"fitnest/client/internal/backend"
	"fitnest/client/internal/models"

	"github.com/spf13/cobra"
)

var signupUser, signupEmail, signupPassword string

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and log in",
	RunE:  runSignup,
}

func runSignup(cmd *cobra.Command, _ []string) error {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	req := models.RegisterRequest{Username: signupUser, Email: signupEmail, Password: signupPassword}
	if req.Username == "" {
		fmt.Fprint(out, "Username: ")
		req.Username = readLine(in)
	}
	if req.Email == "" {
		fmt.Fprint(out, "Email: ")
		req.Email = readLine(in)
	}
	if req.Password == "" {
		fmt.Fprint(out, "Password: ")
		req.Password = readLine(in)
	}
	if req.Username == "" || req.Password == "" {
		return errors.New(current.t("auth.signup_incomplete"))
	}

	ctx := cmd.Context()
	if err := current.api.Register(ctx, req); err != nil {
		var se *backend.StatusError
		if errors.As(err, &se) && se.Code == http.StatusBadRequest {
			current.logger.Debug("signup rejected: " + se.Body)
			return errors.New(current.t("auth.signup_rejected"))
		}
		return err
	}
	fmt.Fprintln(out, current.t("auth.signed_up", req.Username))

	sess, err := auth.Login(ctx, current.api, current.store, req.Username, req.Password)
	if err != nil {
		return err
	}
	current.useSession(ctx, sess)
	fmt.Fprintln(out, current.t("auth.logged_in", sess.Username, sess.UserID))
	return nil
}

func init() {
	signupCmd.Flags().StringVarP(&signupUser, "username", "u", "", "new account username")
	signupCmd.Flags().StringVarP(&signupEmail, "email", "e", "", "contact email")
	signupCmd.Flags().StringVarP(&signupPassword, "password", "p", "", "account password (prompted when empty)")
}
