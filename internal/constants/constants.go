package constants

// ReadOnlyPolicyARN is the AWS managed policy granted and revoked by accessctl.
const ReadOnlyPolicyARN = "arn:aws:iam::aws:policy/ReadOnlyAccess"

// Location of the allow-list document in S3.
const (
	DefaultAllowListBucket = "org-logs-mitigata"
	DefaultAllowListKey    = "access-management/access-list.json"
)

// MaxObjectSize is the maximum object size (in bytes) read from S3.
// Larger objects are rejected with a size error.
const MaxObjectSize = 10 * 1024 * 1024 // 10 MB
