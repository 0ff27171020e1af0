package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"tasnim.dev/accessctl/internal/constants"
)

type S3API interface {
	GetBucketLocation(ctx context.Context, params *awss3.GetBucketLocationInput, optFns ...func(*awss3.Options)) (*awss3.GetBucketLocationOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

type Client struct {
	api S3API
}

func NewClient(api S3API) *Client {
	return &Client{api: api}
}

// BucketRegion returns the region a bucket lives in.
func (c *Client) BucketRegion(ctx context.Context, bucket string) (string, error) {
	out, err := c.api.GetBucketLocation(ctx, &awss3.GetBucketLocationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return "", fmt.Errorf("GetBucketLocation(%s): %w", bucket, err)
	}

	region := string(out.LocationConstraint)
	if region == "" {
		region = "us-east-1"
	}
	return region, nil
}

// GetObject reads an object into memory. An empty region is resolved with
// GetBucketLocation; if that lookup fails the client's own region is used.
func (c *Client) GetObject(ctx context.Context, bucket, key, region string) ([]byte, error) {
	if region == "" {
		if resolved, err := c.BucketRegion(ctx, bucket); err == nil {
			region = resolved
		}
	}

	var opts []func(*awss3.Options)
	if region != "" {
		opts = append(opts, func(o *awss3.Options) {
			o.Region = region
		})
	}

	out, err := c.api.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("GetObject(s3://%s/%s): %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, constants.MaxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("GetObject(s3://%s/%s): reading body: %w", bucket, key, err)
	}
	if len(data) > constants.MaxObjectSize {
		return nil, fmt.Errorf("GetObject(s3://%s/%s): object exceeds %d bytes", bucket, key, constants.MaxObjectSize)
	}

	return data, nil
}
