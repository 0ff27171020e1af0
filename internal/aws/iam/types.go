package iam

// PrincipalKind selects which family of IAM APIs a principal is managed through.
type PrincipalKind int

const (
	PrincipalUser PrincipalKind = iota
	PrincipalRole
)

func (k PrincipalKind) String() string {
	switch k {
	case PrincipalRole:
		return "role"
	default:
		return "user"
	}
}

// Principal is the IAM entity a policy is attached to or detached from.
type Principal struct {
	Kind PrincipalKind
	// Name is the UserName or RoleName passed to the IAM API.
	Name string
	// Identity is the string the principal was resolved from, unchanged.
	Identity string
}

type IAMAttachedPolicy struct {
	Name string
	ARN  string
}
