package internal

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// EC2API is the subset of the EC2 client the provisioner calls.
type EC2API interface {
	DescribeAvailabilityZones(ctx context.Context, params *ec2.DescribeAvailabilityZonesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error)
	DescribeImages(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error)
	DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
	CreateSecurityGroup(ctx context.Context, params *ec2.CreateSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error)
	AuthorizeSecurityGroupIngress(ctx context.Context, params *ec2.AuthorizeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error)
	DescribeKeyPairs(ctx context.Context, params *ec2.DescribeKeyPairsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error)
	CreateKeyPair(ctx context.Context, params *ec2.CreateKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.CreateKeyPairOutput, error)
}

// STSAPI is the subset of the STS client the provisioner calls.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

var (
	_ EC2API = (*ec2.Client)(nil)
	_ STSAPI = (*sts.Client)(nil)
)

// Session is a region-bound handle to the cloud APIs.
type Session struct {
	Region  string
	Profile string
	EC2     EC2API
	STS     STSAPI
	Retry   RetryPolicy
}

// NewSession loads the ambient AWS configuration (environment, shared config
// and credentials files) for region and an optional named profile.
func NewSession(ctx context.Context, region, profile string, retry RetryPolicy) (*Session, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return NewSessionFromClients(cfg.Region, profile, ec2.NewFromConfig(cfg), sts.NewFromConfig(cfg), retry), nil
}

// NewSessionFromClients builds a Session around already constructed clients.
func NewSessionFromClients(region, profile string, ec2Client EC2API, stsClient STSAPI, retry RetryPolicy) *Session {
	return &Session{
		Region:  region,
		Profile: profile,
		EC2:     ec2Client,
		STS:     stsClient,
		Retry:   retry,
	}
}

// CallerIdentity returns the account and principal the session acts as.
func CallerIdentity(ctx context.Context, s *Session) (Identity, error) {
	out, err := call(ctx, s.Retry, func() (*sts.GetCallerIdentityOutput, error) {
		return s.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	})
	if err != nil {
		return Identity{}, fmt.Errorf("getting caller identity: %w", err)
	}

	return Identity{
		Account: aws.ToString(out.Account),
		Arn:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}, nil
}
