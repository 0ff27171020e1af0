package iam

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"
)

type IAMAPI interface {
	AttachUserPolicy(ctx context.Context, params *awsiam.AttachUserPolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.AttachUserPolicyOutput, error)
	DetachUserPolicy(ctx context.Context, params *awsiam.DetachUserPolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.DetachUserPolicyOutput, error)
	AttachRolePolicy(ctx context.Context, params *awsiam.AttachRolePolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.AttachRolePolicyOutput, error)
	DetachRolePolicy(ctx context.Context, params *awsiam.DetachRolePolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.DetachRolePolicyOutput, error)
	ListAttachedUserPolicies(ctx context.Context, params *awsiam.ListAttachedUserPoliciesInput, optFns ...func(*awsiam.Options)) (*awsiam.ListAttachedUserPoliciesOutput, error)
	ListAttachedRolePolicies(ctx context.Context, params *awsiam.ListAttachedRolePoliciesInput, optFns ...func(*awsiam.Options)) (*awsiam.ListAttachedRolePoliciesOutput, error)
}

type Client struct {
	api IAMAPI
}

func NewClient(api IAMAPI) *Client {
	return &Client{api: api}
}

// AttachPolicy attaches a managed policy to a user or role.
func (c *Client) AttachPolicy(ctx context.Context, p Principal, policyARN string) error {
	switch p.Kind {
	case PrincipalRole:
		_, err := c.api.AttachRolePolicy(ctx, &awsiam.AttachRolePolicyInput{
			RoleName:  aws.String(p.Name),
			PolicyArn: aws.String(policyARN),
		})
		if err != nil {
			return fmt.Errorf("AttachRolePolicy(%s): %w", p.Name, err)
		}
	default:
		_, err := c.api.AttachUserPolicy(ctx, &awsiam.AttachUserPolicyInput{
			UserName:  aws.String(p.Name),
			PolicyArn: aws.String(policyARN),
		})
		if err != nil {
			return fmt.Errorf("AttachUserPolicy(%s): %w", p.Name, err)
		}
	}
	return nil
}

// DetachPolicy detaches a managed policy from a user or role.
func (c *Client) DetachPolicy(ctx context.Context, p Principal, policyARN string) error {
	switch p.Kind {
	case PrincipalRole:
		_, err := c.api.DetachRolePolicy(ctx, &awsiam.DetachRolePolicyInput{
			RoleName:  aws.String(p.Name),
			PolicyArn: aws.String(policyARN),
		})
		if err != nil {
			return fmt.Errorf("DetachRolePolicy(%s): %w", p.Name, err)
		}
	default:
		_, err := c.api.DetachUserPolicy(ctx, &awsiam.DetachUserPolicyInput{
			UserName:  aws.String(p.Name),
			PolicyArn: aws.String(policyARN),
		})
		if err != nil {
			return fmt.Errorf("DetachUserPolicy(%s): %w", p.Name, err)
		}
	}
	return nil
}

// HasPolicy reports whether policyARN is currently attached to the principal.
func (c *Client) HasPolicy(ctx context.Context, p Principal, policyARN string) (bool, error) {
	var (
		policies []IAMAttachedPolicy
		err      error
	)
	if p.Kind == PrincipalRole {
		policies, err = c.ListAttachedRolePolicies(ctx, p.Name)
	} else {
		policies, err = c.ListAttachedUserPolicies(ctx, p.Name)
	}
	if err != nil {
		return false, err
	}

	for _, policy := range policies {
		if policy.ARN == policyARN {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) ListAttachedUserPolicies(ctx context.Context, userName string) ([]IAMAttachedPolicy, error) {
	var policies []IAMAttachedPolicy
	var marker *string

	for {
		out, err := c.api.ListAttachedUserPolicies(ctx, &awsiam.ListAttachedUserPoliciesInput{
			UserName: aws.String(userName),
			Marker:   marker,
		})
		if err != nil {
			return nil, fmt.Errorf("ListAttachedUserPolicies(%s): %w", userName, err)
		}

		for _, p := range out.AttachedPolicies {
			policies = append(policies, IAMAttachedPolicy{
				Name: aws.ToString(p.PolicyName),
				ARN:  aws.ToString(p.PolicyArn),
			})
		}

		if !out.IsTruncated {
			break
		}
		marker = out.Marker
	}

	return policies, nil
}

func (c *Client) ListAttachedRolePolicies(ctx context.Context, roleName string) ([]IAMAttachedPolicy, error) {
	var policies []IAMAttachedPolicy
	var marker *string

	for {
		out, err := c.api.ListAttachedRolePolicies(ctx, &awsiam.ListAttachedRolePoliciesInput{
			RoleName: aws.String(roleName),
			Marker:   marker,
		})
		if err != nil {
			return nil, fmt.Errorf("ListAttachedRolePolicies(%s): %w", roleName, err)
		}

		for _, p := range out.AttachedPolicies {
			policies = append(policies, IAMAttachedPolicy{
				Name: aws.ToString(p.PolicyName),
				ARN:  aws.ToString(p.PolicyArn),
			})
		}

		if !out.IsTruncated {
			break
		}
		marker = out.Marker
	}

	return policies, nil
}
