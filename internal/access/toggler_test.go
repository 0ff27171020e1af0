package access

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	awsiam "tasnim.dev/accessctl/internal/aws/iam"
	"tasnim.dev/accessctl/internal/constants"
)

const aliceARN = "arn:aws:iam::123:user/alice"

type policyCall struct {
	principal awsiam.Principal
	policyARN string
}

type mockPolicyClient struct {
	attachErr error
	detachErr error
	attached  bool
	hasErr    error
	attaches  []policyCall
	detaches  []policyCall
	checks    int
}

func (m *mockPolicyClient) AttachPolicy(ctx context.Context, p awsiam.Principal, policyARN string) error {
	m.attaches = append(m.attaches, policyCall{p, policyARN})
	if m.attachErr == nil {
		m.attached = true
	}
	return m.attachErr
}

func (m *mockPolicyClient) DetachPolicy(ctx context.Context, p awsiam.Principal, policyARN string) error {
	m.detaches = append(m.detaches, policyCall{p, policyARN})
	if m.detachErr == nil {
		m.attached = false
	}
	return m.detachErr
}

func (m *mockPolicyClient) HasPolicy(ctx context.Context, p awsiam.Principal, policyARN string) (bool, error) {
	m.checks++
	return m.attached, m.hasErr
}

type mockObjects struct {
	data  []byte
	err   error
	calls int
}

func (m *mockObjects) GetObject(ctx context.Context, bucket, key, region string) ([]byte, error) {
	m.calls++
	return m.data, m.err
}

func allowListDoc() *mockObjects {
	return &mockObjects{data: []byte(`{"access_list": [{"name": "arn:aws:iam::123:user/alice"}, {"name": "r1"}, {"name": "r2"}]}`)}
}

func newTestToggler(iam *mockPolicyClient, objects *mockObjects, opts Options) (*Toggler, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	if objects == nil {
		return NewToggler(iam, nil, opts, logger), hook
	}
	return NewToggler(iam, objects, opts, logger), hook
}

func errorEntries(hook *test.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			out = append(out, e)
		}
	}
	return out
}

func TestRun_GrantAllowed(t *testing.T) {
	iam := &mockPolicyClient{}
	objects := allowListDoc()
	toggler, hook := newTestToggler(iam, objects, DefaultOptions())

	err := toggler.Run(context.Background(), Grant, aliceARN)
	require.NoError(t, err)

	require.Len(t, iam.attaches, 1)
	assert.Equal(t, constants.ReadOnlyPolicyARN, iam.attaches[0].policyARN)
	assert.Equal(t, awsiam.Principal{Kind: awsiam.PrincipalUser, Name: "alice", Identity: aliceARN}, iam.attaches[0].principal)
	assert.Empty(t, iam.detaches)
	assert.Equal(t, 1, objects.calls)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "Granted ReadOnlyAccess to "+aliceARN, entry.Message)
	assert.Empty(t, errorEntries(hook))
}

func TestRun_RevokeAllowed(t *testing.T) {
	iam := &mockPolicyClient{attached: true}
	toggler, hook := newTestToggler(iam, allowListDoc(), DefaultOptions())

	require.NoError(t, toggler.Run(context.Background(), Revoke, "r1"))

	require.Len(t, iam.detaches, 1)
	assert.Equal(t, constants.ReadOnlyPolicyARN, iam.detaches[0].policyARN)
	assert.Equal(t, "r1", iam.detaches[0].principal.Name)
	assert.Empty(t, iam.attaches)
	assert.Equal(t, "Revoked ReadOnlyAccess from r1", hook.LastEntry().Message)
}

func TestRun_AccessDenied(t *testing.T) {
	for _, action := range []Action{Grant, Revoke} {
		t.Run(action.String(), func(t *testing.T) {
			iam := &mockPolicyClient{}
			toggler, hook := newTestToggler(iam, allowListDoc(), DefaultOptions())

			err := toggler.Run(context.Background(), action, "arn:aws:iam::123:user/mallory")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAccessDenied)

			assert.Empty(t, iam.attaches)
			assert.Empty(t, iam.detaches)

			errs := errorEntries(hook)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0].Message, "Access denied")
		})
	}
}

func TestRun_AllowListRoundTrip(t *testing.T) {
	objects := &mockObjects{data: []byte(`{"access_list": [{"name": "r1"}, {"name": "r2"}]}`)}

	for _, identity := range []string{"r1", "r2"} {
		iam := &mockPolicyClient{}
		toggler, _ := newTestToggler(iam, objects, DefaultOptions())
		assert.NoError(t, toggler.Run(context.Background(), Grant, identity), identity)
		assert.Len(t, iam.attaches, 1, identity)
	}

	for _, identity := range []string{"r3", "R1", "", "r1r2", aliceARN} {
		iam := &mockPolicyClient{}
		toggler, _ := newTestToggler(iam, objects, DefaultOptions())
		assert.ErrorIs(t, toggler.Run(context.Background(), Grant, identity), ErrAccessDenied, identity)
		assert.Empty(t, iam.attaches, identity)
	}
}

func TestRun_AllowListUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		objects *mockObjects
	}{
		{"object missing", &mockObjects{err: &objectNotFound{}}},
		{"invalid utf-8", &mockObjects{data: []byte{0xc3, 0x28}}},
		{"invalid json", &mockObjects{data: []byte(`{"access_list": [{"name": }`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iam := &mockPolicyClient{}
			toggler, hook := newTestToggler(iam, tt.objects, DefaultOptions())

			err := toggler.Run(context.Background(), Grant, aliceARN)
			assert.ErrorIs(t, err, ErrAllowListUnavailable)
			assert.Empty(t, iam.attaches)

			errs := errorEntries(hook)
			require.Len(t, errs, 1)
			assert.Equal(t, "Failed to fetch access list from S3", errs[0].Message)
			assert.Equal(t, constants.DefaultAllowListBucket, errs[0].Data["bucket"])
		})
	}
}

func TestRun_NilObjectsWithGate(t *testing.T) {
	iam := &mockPolicyClient{}
	toggler, _ := newTestToggler(iam, nil, DefaultOptions())

	err := toggler.Run(context.Background(), Grant, aliceARN)
	assert.ErrorIs(t, err, ErrAllowListUnavailable)
	assert.Empty(t, iam.attaches)
}

func TestRun_GateDisabled(t *testing.T) {
	iam := &mockPolicyClient{}
	objects := allowListDoc()
	opts := DefaultOptions()
	opts.EnforceAllowList = false
	toggler, hook := newTestToggler(iam, objects, opts)

	require.NoError(t, toggler.Run(context.Background(), Grant, "anyone"))
	assert.Equal(t, 0, objects.calls)
	assert.Len(t, iam.attaches, 1)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned, "disabling the allow-list should log a warning")
}

type objectNotFound struct{}

func (e *objectNotFound) Error() string { return "NoSuchKey: The specified key does not exist." }

func TestRun_ProviderError(t *testing.T) {
	providerErr := &iamtypes.NoSuchEntityException{Message: awssdk.String("The user with name alice cannot be found.")}

	t.Run("grant", func(t *testing.T) {
		iam := &mockPolicyClient{attachErr: providerErr}
		toggler, hook := newTestToggler(iam, allowListDoc(), DefaultOptions())

		err := toggler.Run(context.Background(), Grant, aliceARN)
		assert.ErrorIs(t, err, ErrProvider)
		assert.Len(t, iam.attaches, 1)

		errs := errorEntries(hook)
		require.Len(t, errs, 1)
		assert.Equal(t, "Failed to grant access", errs[0].Message)
		assert.Equal(t, "NoSuchEntity", errs[0].Data["aws_error_code"])
		assert.Equal(t, true, errs[0].Data["not_found"])
	})

	t.Run("revoke", func(t *testing.T) {
		iam := &mockPolicyClient{detachErr: errors.New("connection reset")}
		toggler, hook := newTestToggler(iam, allowListDoc(), DefaultOptions())

		err := toggler.Run(context.Background(), Revoke, aliceARN)
		assert.ErrorIs(t, err, ErrProvider)

		errs := errorEntries(hook)
		require.Len(t, errs, 1)
		assert.Equal(t, "Failed to revoke access", errs[0].Message)
		assert.NotContains(t, errs[0].Data, "aws_error_code")
	})
}

func TestRun_ProviderErrorIsDeterministic(t *testing.T) {
	iam := &mockPolicyClient{attachErr: errors.New("LimitExceeded")}
	toggler, _ := newTestToggler(iam, allowListDoc(), DefaultOptions())

	first := toggler.Run(context.Background(), Grant, aliceARN)
	second := toggler.Run(context.Background(), Grant, aliceARN)
	assert.ErrorIs(t, first, ErrProvider)
	assert.ErrorIs(t, second, ErrProvider)
	assert.Equal(t, first.Error(), second.Error())
	assert.Len(t, iam.attaches, 2)
}

func TestRun_InvalidIdentity(t *testing.T) {
	iam := &mockPolicyClient{}
	objects := &mockObjects{data: []byte(`{"access_list": [{"name": "arn:aws:iam::aws:policy/ReadOnlyAccess"}]}`)}
	toggler, _ := newTestToggler(iam, objects, DefaultOptions())

	err := toggler.Run(context.Background(), Grant, "arn:aws:iam::aws:policy/ReadOnlyAccess")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Empty(t, iam.attaches)
}

func TestRun_RoleKind(t *testing.T) {
	iam := &mockPolicyClient{}
	objects := &mockObjects{data: []byte(`{"access_list": [{"name": "deployer"}]}`)}
	opts := DefaultOptions()
	opts.PrincipalKind = awsiam.KindRole
	toggler, _ := newTestToggler(iam, objects, opts)

	require.NoError(t, toggler.Run(context.Background(), Grant, "deployer"))
	require.Len(t, iam.attaches, 1)
	assert.Equal(t, awsiam.PrincipalRole, iam.attaches[0].principal.Kind)
}

func TestRun_UnknownAction(t *testing.T) {
	iam := &mockPolicyClient{}
	toggler, _ := newTestToggler(iam, allowListDoc(), DefaultOptions())

	err := toggler.Run(context.Background(), Action(7), aliceARN)
	assert.ErrorIs(t, err, ErrInvalidCommand)
	assert.Empty(t, iam.attaches)
	assert.Empty(t, iam.detaches)
}

func TestRun_Verify(t *testing.T) {
	opts := DefaultOptions()
	opts.Verify = true

	t.Run("grant confirmed", func(t *testing.T) {
		iam := &mockPolicyClient{}
		toggler, hook := newTestToggler(iam, allowListDoc(), opts)

		require.NoError(t, toggler.Run(context.Background(), Grant, aliceARN))
		assert.Equal(t, 1, iam.checks)
		assert.Equal(t, "Verified policy attachment", hook.LastEntry().Message)
	})

	t.Run("revoke confirmed", func(t *testing.T) {
		iam := &mockPolicyClient{attached: true}
		toggler, _ := newTestToggler(iam, allowListDoc(), opts)

		require.NoError(t, toggler.Run(context.Background(), Revoke, aliceARN))
		assert.Equal(t, 1, iam.checks)
	})

	t.Run("mismatch", func(t *testing.T) {
		iam := &stickyPolicyClient{mockPolicyClient: mockPolicyClient{attached: true}}
		logger, _ := test.NewNullLogger()
		toggler := NewToggler(iam, allowListDoc(), opts, logger)

		err := toggler.Run(context.Background(), Revoke, aliceARN)
		assert.ErrorIs(t, err, ErrVerification)
	})

	t.Run("lookup error", func(t *testing.T) {
		iam := &mockPolicyClient{hasErr: errors.New("throttled")}
		toggler, _ := newTestToggler(iam, allowListDoc(), opts)

		err := toggler.Run(context.Background(), Grant, aliceARN)
		assert.ErrorIs(t, err, ErrProvider)
	})
}

// stickyPolicyClient reports success on detach but keeps the policy attached.
type stickyPolicyClient struct {
	mockPolicyClient
}

func (s *stickyPolicyClient) DetachPolicy(ctx context.Context, p awsiam.Principal, policyARN string) error {
	s.detaches = append(s.detaches, policyCall{p, policyARN})
	return nil
}
