package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-gin-gorm-crm/internal/app"
	"go-gin-gorm-crm/internal/domain"
	"go-gin-gorm-crm/internal/service"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage CRM users",
}

// operator CLI 以虚拟管理员身份调用服务
var operator = domain.Caller{Username: "crm-admin", Name: "crm-admin", Role: domain.RoleAdmin}

var (
	newUser  service.CreateUserInput
	newEmail string
)

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if newEmail != "" {
			newUser.Email = &newEmail
		}
		return withApp(func(a *app.App) error {
			u, err := a.Users.Create(cmd.Context(), operator, newUser)
			if err != nil {
				return describe(err)
			}
			cmd.Printf("created user %s (id=%d, role=%s)\n", u.Username, u.ID, u.Role)
			return nil
		})
	},
}

var resetPassword string

var userResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <username>",
	Short: "Set a new password for an active user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			if err := a.Users.ResetPassword(cmd.Context(), args[0], resetPassword); err != nil {
				return describe(err)
			}
			cmd.Printf("password updated for %s\n", args[0])
			return nil
		})
	},
}

// describe 业务错误只输出对外信息
func describe(err error) error {
	if m := domain.MessageOf(err); m != "" {
		return fmt.Errorf("%s (%s)", m, domain.KindOf(err))
	}
	return err
}

func init() {
	f := userCreateCmd.Flags()
	f.StringVar(&newUser.Username, "username", "", "login name")
	f.StringVar(&newUser.Password, "password", "", "initial password")
	f.StringVar(&newUser.Name, "name", "", "display name")
	f.StringVar(&newEmail, "email", "", "email address")
	f.StringVar(&newUser.Role, "role", string(domain.RoleUser), "admin or user")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")
	_ = userCreateCmd.MarkFlagRequired("name")

	userResetPasswordCmd.Flags().StringVar(&resetPassword, "password", "", "new password")
	_ = userResetPasswordCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd, userResetPasswordCmd)
	rootCmd.AddCommand(userCmd)
}
