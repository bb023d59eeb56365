package internal

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/charmbracelet/log"
)

// fakeEC2 is an in-memory provider with create/describe semantics close
// enough to EC2 for the provisioning paths.
type fakeEC2 struct {
	zones    []types.AvailabilityZone
	images   []types.Image
	groups   []types.SecurityGroup
	keys     []types.KeyPairInfo
	material string

	authorized map[string]bool

	createGroupCalls int
	createKeyCalls   int
	authorizeCalls   []*ec2.AuthorizeSecurityGroupIngressInput
	imagesInput      *ec2.DescribeImagesInput

	// errs injects an error for the named operation on its next call.
	errs map[string][]error
}

func newFakeEC2() *fakeEC2 {
	return &fakeEC2{
		material:   "MOCK-KEY-DATA",
		authorized: map[string]bool{},
		errs:       map[string][]error{},
	}
}

func (f *fakeEC2) failNext(op string, errs ...error) {
	f.errs[op] = append(f.errs[op], errs...)
}

func (f *fakeEC2) injected(op string) error {
	if q := f.errs[op]; len(q) > 0 {
		f.errs[op] = q[1:]
		return q[0]
	}
	return nil
}

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code, Fault: smithy.FaultClient}
}

func (f *fakeEC2) DescribeAvailabilityZones(_ context.Context, _ *ec2.DescribeAvailabilityZonesInput, _ ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error) {
	if err := f.injected("DescribeAvailabilityZones"); err != nil {
		return nil, err
	}
	return &ec2.DescribeAvailabilityZonesOutput{AvailabilityZones: f.zones}, nil
}

func (f *fakeEC2) DescribeImages(_ context.Context, in *ec2.DescribeImagesInput, _ ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
	if err := f.injected("DescribeImages"); err != nil {
		return nil, err
	}
	f.imagesInput = in
	return &ec2.DescribeImagesOutput{Images: f.images}, nil
}

func (f *fakeEC2) DescribeSecurityGroups(_ context.Context, _ *ec2.DescribeSecurityGroupsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	if err := f.injected("DescribeSecurityGroups"); err != nil {
		return nil, err
	}
	return &ec2.DescribeSecurityGroupsOutput{SecurityGroups: f.groups}, nil
}

func (f *fakeEC2) CreateSecurityGroup(_ context.Context, in *ec2.CreateSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error) {
	if err := f.injected("CreateSecurityGroup"); err != nil {
		return nil, err
	}
	f.createGroupCalls++
	id := fmt.Sprintf("sg-%04d", len(f.groups)+1)
	f.groups = append(f.groups, types.SecurityGroup{
		GroupId:     aws.String(id),
		GroupName:   in.GroupName,
		Description: in.Description,
	})
	return &ec2.CreateSecurityGroupOutput{GroupId: aws.String(id)}, nil
}

func (f *fakeEC2) AuthorizeSecurityGroupIngress(_ context.Context, in *ec2.AuthorizeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	f.authorizeCalls = append(f.authorizeCalls, in)
	if err := f.injected("AuthorizeSecurityGroupIngress"); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(in.IpPermissions))
	for _, p := range in.IpPermissions {
		for _, r := range p.IpRanges {
			k := fmt.Sprintf("%s/%s/%d/%s", aws.ToString(in.GroupId), aws.ToString(p.IpProtocol), aws.ToInt32(p.FromPort), aws.ToString(r.CidrIp))
			if f.authorized[k] {
				return nil, apiError(codeDuplicatePermission)
			}
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		f.authorized[k] = true
	}
	return &ec2.AuthorizeSecurityGroupIngressOutput{Return: aws.Bool(true)}, nil
}

func (f *fakeEC2) DescribeKeyPairs(ctx context.Context, in *ec2.DescribeKeyPairsInput, _ ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.injected("DescribeKeyPairs"); err != nil {
		return nil, err
	}
	var found []types.KeyPairInfo
	for _, name := range in.KeyNames {
		for _, k := range f.keys {
			if aws.ToString(k.KeyName) == name {
				found = append(found, k)
			}
		}
	}
	if len(in.KeyNames) > 0 && len(found) == 0 {
		return nil, apiError(codeKeyPairNotFound)
	}
	return &ec2.DescribeKeyPairsOutput{KeyPairs: found}, nil
}

func (f *fakeEC2) CreateKeyPair(ctx context.Context, in *ec2.CreateKeyPairInput, _ ...func(*ec2.Options)) (*ec2.CreateKeyPairOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.injected("CreateKeyPair"); err != nil {
		return nil, err
	}
	for _, k := range f.keys {
		if aws.ToString(k.KeyName) == aws.ToString(in.KeyName) {
			return nil, apiError("InvalidKeyPair.Duplicate")
		}
	}
	f.createKeyCalls++
	id := fmt.Sprintf("key-%04d", len(f.keys)+1)
	f.keys = append(f.keys, types.KeyPairInfo{
		KeyName:        in.KeyName,
		KeyPairId:      aws.String(id),
		KeyFingerprint: aws.String("aa:bb:cc"),
	})
	return &ec2.CreateKeyPairOutput{
		KeyName:        in.KeyName,
		KeyPairId:      aws.String(id),
		KeyFingerprint: aws.String("aa:bb:cc"),
		KeyMaterial:    aws.String(f.material),
	}, nil
}

type fakeSTS struct {
	err error
}

func (f *fakeSTS) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String("123456789012"),
		Arn:     aws.String("arn:aws:iam::123456789012:user/student"),
		UserId:  aws.String("AIDATEST"),
	}, nil
}

func newTestSession(f *fakeEC2) *Session {
	return NewSessionFromClients(DefaultRegion, "", f, &fakeSTS{}, NoRetry)
}

func newTestLogger(t *testing.T) (*log.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return log.New(&buf), &buf
}

// memStore records what it was asked to store.
type memStore struct {
	name  string
	calls int
	data  []byte
	err   error
}

func (m *memStore) Name() string { return m.name }

func (m *memStore) Store(_ string, material []byte) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.data = append([]byte(nil), material...)
	return nil
}
