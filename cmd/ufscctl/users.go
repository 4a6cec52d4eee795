package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ufsc-france/gestion-backend/internal/auth"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
)

const newPasswordEnv = "UFSC_NEW_PASSWORD"

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Account management",
	}

	var (
		req      auth.ProvisionRequest
		role     string
		region   string
		clubID   string
		password string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a club, staff or admin account",
		Example: `  UFSC_NEW_PASSWORD=... ufscctl users create --email resp@club.fr --role club --club-id 3f0c...
  ufscctl users create --email delegue@ufsc.fr --role staff --region occitanie --password s3cretpass`,
		Annotations: online(),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := enums.ParseUserRole(role)
			if err != nil {
				return err
			}
			req.Role = parsed
			req.Password = password
			if req.Password == "" {
				req.Password = os.Getenv(newPasswordEnv)
			}
			if strings.TrimSpace(region) != "" {
				req.Region = &region
			}
			if strings.TrimSpace(clubID) != "" {
				id, err := uuid.Parse(strings.TrimSpace(clubID))
				if err != nil {
					return fmt.Errorf("invalid --club-id: %w", err)
				}
				req.ClubID = &id
			}

			b, err := backendFrom(cmd)
			if err != nil {
				return err
			}
			user, err := b.Provision.Provision(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s account %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&req.Email, "email", "", "login email")
	create.Flags().StringVar(&req.DisplayName, "name", "", "display name (defaults to the email)")
	create.Flags().StringVar(&role, "role", string(enums.UserRoleClub), "club, staff or admin")
	create.Flags().StringVar(&region, "region", "", "region slug for staff accounts")
	create.Flags().BoolVar(&req.AllRegions, "all-regions", false, "grant national scope to a staff account")
	create.Flags().StringVar(&clubID, "club-id", "", "club the account is responsible for")
	create.Flags().StringVar(&password, "password", "", "initial password (or UFSC_NEW_PASSWORD)")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}
