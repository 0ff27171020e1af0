package iam

import (
	"errors"

	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/smithy-go"
)

// ErrorCode returns the AWS API error code carried by err, or "" if err did
// not come from the service.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsNoSuchEntity reports whether err is IAM's NoSuchEntity error, returned
// when the user, role or attachment does not exist.
func IsNoSuchEntity(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	var noSuchEntity *iamtypes.NoSuchEntityException
	return errors.As(apiErr, &noSuchEntity)
}
