package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tasnim.dev/accessctl/internal/access"
	"tasnim.dev/accessctl/internal/allowlist"
	awsclient "tasnim.dev/accessctl/internal/aws"
	awsiam "tasnim.dev/accessctl/internal/aws/iam"
	"tasnim.dev/accessctl/internal/config"
)

const (
	usageText          = "Usage: accessctl <grant|revoke> <identity>"
	invalidCommandText = "Invalid command. Use 'grant' or 'revoke'."
)

// ClientFactory builds the AWS clients for one invocation.
type ClientFactory func(ctx context.Context, profile, region string) (*awsclient.ServiceClient, error)

func NewAccessCmd(newClient ClientFactory) *cobra.Command {
	var (
		profile       string
		region        string
		kind          string
		configPath    string
		skipAllowList bool
		verify        bool
		debug         bool
	)

	cmd := &cobra.Command{
		Use:   "accessctl <grant|revoke> <identity>",
		Short: "Grant or revoke AWS ReadOnlyAccess for an IAM user or role",
		Long: `Attaches (grant) or detaches (revoke) the AWS managed ReadOnlyAccess policy
for one IAM user or role. The identity must appear in the S3-hosted allow-list
unless the check is disabled.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), debug)

			if len(args) < 2 {
				fmt.Fprintln(cmd.OutOrStdout(), usageText)
				return access.ErrUsage
			}

			action, err := access.ParseAction(args[0])
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), invalidCommandText)
				return err
			}
			identity := args[1]

			cfg, err := loadConfig(configPath)
			if err != nil {
				logger.WithError(err).Error("Failed to load config")
				return fmt.Errorf("loading config: %w", err)
			}
			profile, region = cfg.Merge(profile, region)

			ctx := cmd.Context()
			client, err := newClient(ctx, profile, region)
			if err != nil {
				logger.WithError(err).Error("Failed to initialize AWS clients")
				return fmt.Errorf("initializing AWS client: %w", err)
			}

			var fieldLogger logrus.FieldLogger = logger
			if client.AccountID != "" {
				fieldLogger = logger.WithField("account", client.AccountID)
			}

			opts := access.Options{
				EnforceAllowList: cfg.Enforce() && !skipAllowList,
				Bucket:           cfg.Bucket(),
				Key:              cfg.Key(),
				Region:           cfg.AllowListRegion,
				PrincipalKind:    kind,
				Verify:           verify,
			}

			var objects allowlist.ObjectGetter
			if client.S3 != nil {
				objects = client.S3
			}

			return access.NewToggler(client.IAM, objects, opts, fieldLogger).Run(ctx, action, identity)
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintln(c.ErrOrStderr(), err)
		fmt.Fprintln(c.OutOrStdout(), usageText)
		return fmt.Errorf("%w: %w", access.ErrUsage, err)
	})

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "AWS profile to use")
	cmd.Flags().StringVarP(&region, "region", "r", "", "AWS region to use")
	cmd.Flags().StringVar(&kind, "kind", awsiam.KindAuto, "Identity kind: auto, user or role")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default ~/.config/accessctl/config.yaml)")
	cmd.Flags().BoolVar(&skipAllowList, "skip-allow-list", false, "Do not check the identity against the S3 allow-list")
	cmd.Flags().BoolVar(&verify, "verify", false, "Confirm the policy attachment state after the change")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return config.LoadFile(path)
}
