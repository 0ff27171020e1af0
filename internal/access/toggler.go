// Package access applies or removes the read-only policy for one identity,
// optionally gated by the allow-list.
package access

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"tasnim.dev/accessctl/internal/allowlist"
	awsiam "tasnim.dev/accessctl/internal/aws/iam"
	"tasnim.dev/accessctl/internal/constants"
)

// PolicyClient is the subset of the IAM client the toggler needs.
type PolicyClient interface {
	AttachPolicy(ctx context.Context, p awsiam.Principal, policyARN string) error
	DetachPolicy(ctx context.Context, p awsiam.Principal, policyARN string) error
	HasPolicy(ctx context.Context, p awsiam.Principal, policyARN string) (bool, error)
}

type Options struct {
	// EnforceAllowList rejects identities absent from the allow-list.
	EnforceAllowList bool
	Bucket           string
	Key              string
	Region           string
	// PrincipalKind is passed to awsiam.ResolvePrincipal.
	PrincipalKind string
	// Verify re-reads the principal's attachments after the change.
	Verify bool
}

// DefaultOptions gates on the allow-list at its standard location.
func DefaultOptions() Options {
	return Options{
		EnforceAllowList: true,
		Bucket:           constants.DefaultAllowListBucket,
		Key:              constants.DefaultAllowListKey,
		PrincipalKind:    awsiam.KindAuto,
	}
}

type Toggler struct {
	iam     PolicyClient
	objects allowlist.ObjectGetter
	opts    Options
	logger  logrus.FieldLogger
}

// NewToggler wires the clients for one invocation. objects may be nil when
// opts.EnforceAllowList is false.
func NewToggler(iam PolicyClient, objects allowlist.ObjectGetter, opts Options, logger logrus.FieldLogger) *Toggler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Toggler{iam: iam, objects: objects, opts: opts, logger: logger}
}

// Run performs action on identity. Failures are logged here and returned
// wrapped in one of the package's sentinel errors.
func (t *Toggler) Run(ctx context.Context, action Action, identity string) error {
	logger := t.logger.WithFields(logrus.Fields{
		"identity": identity,
		"action":   action.String(),
		"policy":   constants.ReadOnlyPolicyARN,
	})

	if t.opts.EnforceAllowList {
		if err := t.checkAllowList(ctx, logger, identity); err != nil {
			return err
		}
	} else {
		logger.Warn("Allow-list check disabled")
	}

	principal, err := awsiam.ResolvePrincipal(identity, t.opts.PrincipalKind)
	if err != nil {
		logger.WithError(err).Error("Invalid identity")
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	logger = logger.WithField("principal", principal.Kind.String()+"/"+principal.Name)

	switch action {
	case Grant:
		err = t.grant(ctx, logger, principal)
	case Revoke:
		err = t.revoke(ctx, logger, principal)
	default:
		err = fmt.Errorf("%w: %s", ErrInvalidCommand, action)
		logger.Error("Invalid command")
	}
	if err != nil {
		return err
	}

	if t.opts.Verify {
		return t.verify(ctx, logger, action, principal)
	}
	return nil
}

func (t *Toggler) checkAllowList(ctx context.Context, logger logrus.FieldLogger, identity string) error {
	logger = logger.WithField("bucket", t.opts.Bucket).WithField("key", t.opts.Key)

	list, err := t.fetchAllowList(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to fetch access list from S3")
		return err
	}
	logger.WithField("entries", len(list)).Debug("Fetched access list")

	if !list.Contains(identity) {
		logger.Errorf("Access denied: %s is not in the allowed access list", identity)
		return fmt.Errorf("%w: %s is not in the allowed access list", ErrAccessDenied, identity)
	}
	return nil
}

func (t *Toggler) fetchAllowList(ctx context.Context) (allowlist.List, error) {
	if t.objects == nil {
		return nil, fmt.Errorf("%w: no object storage client configured", ErrAllowListUnavailable)
	}
	return allowlist.Fetch(ctx, t.objects, t.opts.Bucket, t.opts.Key, t.opts.Region)
}

func (t *Toggler) grant(ctx context.Context, logger logrus.FieldLogger, p awsiam.Principal) error {
	if err := t.iam.AttachPolicy(ctx, p, constants.ReadOnlyPolicyARN); err != nil {
		providerLogger(logger, err).Error("Failed to grant access")
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}
	logger.Infof("Granted ReadOnlyAccess to %s", p.Identity)
	return nil
}

func (t *Toggler) revoke(ctx context.Context, logger logrus.FieldLogger, p awsiam.Principal) error {
	if err := t.iam.DetachPolicy(ctx, p, constants.ReadOnlyPolicyARN); err != nil {
		providerLogger(logger, err).Error("Failed to revoke access")
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}
	logger.Infof("Revoked ReadOnlyAccess from %s", p.Identity)
	return nil
}

func (t *Toggler) verify(ctx context.Context, logger logrus.FieldLogger, action Action, p awsiam.Principal) error {
	attached, err := t.iam.HasPolicy(ctx, p, constants.ReadOnlyPolicyARN)
	if err != nil {
		providerLogger(logger, err).Error("Failed to verify policy attachment")
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}

	want := action == Grant
	if attached != want {
		logger.WithField("attached", attached).Error("Policy attachment does not match requested action")
		return fmt.Errorf("%w: %s attached=%t after %s", ErrVerification, p.Identity, attached, action)
	}
	logger.WithField("attached", attached).Info("Verified policy attachment")
	return nil
}

func providerLogger(logger logrus.FieldLogger, err error) logrus.FieldLogger {
	logger = logger.WithError(err)
	if code := awsiam.ErrorCode(err); code != "" {
		logger = logger.WithField("aws_error_code", code)
	}
	if awsiam.IsNoSuchEntity(err) {
		logger = logger.WithField("not_found", true)
	}
	return logger
}
