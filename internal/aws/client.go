package aws

import (
	"context"
	"fmt"

	awsiamsdk "github.com/aws/aws-sdk-go-v2/service/iam"
	awss3sdk "github.com/aws/aws-sdk-go-v2/service/s3"

	awsiam "tasnim.dev/accessctl/internal/aws/iam"
	awss3 "tasnim.dev/accessctl/internal/aws/s3"
)

// ServiceClient holds the process-scoped AWS clients used by one invocation.
type ServiceClient struct {
	IAM       *awsiam.Client
	S3        *awss3.Client
	AccountID string
}

func NewServiceClient(ctx context.Context, profile, region string) (*ServiceClient, error) {
	cfg, err := LoadConfig(ctx, profile, region)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &ServiceClient{
		IAM:       awsiam.NewClient(awsiamsdk.NewFromConfig(cfg)),
		S3:        awss3.NewClient(awss3sdk.NewFromConfig(cfg)),
		AccountID: GetAccountID(ctx, cfg),
	}, nil
}
