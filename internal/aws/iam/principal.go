package iam

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"

	"tasnim.dev/accessctl/internal/utils"
)

// Kind values accepted by ResolvePrincipal.
const (
	KindAuto = "auto"
	KindUser = "user"
	KindRole = "role"
)

// ResolvePrincipal maps an identity string to the IAM principal it names.
//
// With kind "auto", IAM ARNs are inspected: "user/..." resources resolve to
// users and "role/..." resources to roles, named by the last path segment.
// Anything that is not an IAM ARN is used verbatim as a user name.
// "user" and "role" force the kind; an ARN is still reduced to its name.
func ResolvePrincipal(identity, kind string) (Principal, error) {
	if identity == "" {
		return Principal{}, fmt.Errorf("empty identity")
	}

	p := Principal{Kind: PrincipalUser, Name: identity, Identity: identity}

	resourceKind := ""
	if arn.IsARN(identity) {
		parsed, err := arn.Parse(identity)
		if err != nil {
			return Principal{}, fmt.Errorf("parsing ARN %q: %w", identity, err)
		}
		if parsed.Service != "iam" {
			return Principal{}, fmt.Errorf("ARN %q is not an IAM ARN", identity)
		}
		resourceKind, _, _ = strings.Cut(parsed.Resource, "/")
		p.Name = utils.ShortName(parsed.Resource)
	}

	switch strings.ToLower(kind) {
	case "", KindAuto:
		switch resourceKind {
		case "", KindUser:
			p.Kind = PrincipalUser
		case KindRole:
			p.Kind = PrincipalRole
		default:
			return Principal{}, fmt.Errorf("unsupported IAM resource type %q in %q", resourceKind, identity)
		}
	case KindUser:
		p.Kind = PrincipalUser
	case KindRole:
		p.Kind = PrincipalRole
	default:
		return Principal{}, fmt.Errorf("unknown principal kind %q (want auto, user or role)", kind)
	}

	return p, nil
}
