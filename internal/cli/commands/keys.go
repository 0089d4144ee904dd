package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/delivery/internal/web/auth"
)

// NewHashKeyCommand creates the hash-key command
func NewHashKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key [api-key]",
		Short: "Hash an API key for auth.api_key_hash",
		Long: `Print the bcrypt hash of an API key. Put the hash in auth.api_key_hash and
hand the key itself to clients in the Api-Key header.

The key is prompted for when it is not given as an argument.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				prompt := &survey.Password{Message: "API key:"}
				if err := survey.AskOne(prompt, &key, survey.WithValidator(survey.Required)); err != nil {
					return err
				}
			}

			hash, err := auth.HashAPIKey(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// NewMemberTokenCommand creates the member-token command
func NewMemberTokenCommand() *cobra.Command {
	var groups []string

	cmd := &cobra.Command{
		Use:   "member-token <member-id>",
		Short: "Issue a bearer token for protected content",
		Long: `Sign a member token with auth.member_secret. Send it as
"Authorization: Bearer <token>" to read content protected for the given groups.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Auth.MemberSecret == "" {
				return errors.New("auth.member_secret is not configured")
			}

			memberID := strings.TrimSpace(args[0])
			if memberID == "" {
				return errors.New("member id cannot be empty")
			}

			token, err := auth.NewMemberTokens(cfg.Auth.MemberSecret, cfg.Auth.MemberTokenTTL).Issue(memberID, groups)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&groups, "group", "g", nil, "Member group (repeatable)")

	return cmd
}
