package internal

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// IngressRule allows Protocol traffic on Port from CIDR.
type IngressRule struct {
	Protocol string `json:"protocol" yaml:"protocol"`
	Port     int32  `json:"port" yaml:"port"`
	CIDR     string `json:"cidr" yaml:"cidr"`
}

// NewIngressRule opens a single TCP port to every source.
func NewIngressRule(port int32) IngressRule {
	return IngressRule{Protocol: "tcp", Port: port, CIDR: DefaultCIDR}
}

func (r IngressRule) String() string {
	return fmt.Sprintf("%s:%d:%s", r.Protocol, r.Port, r.CIDR)
}

// Permission converts the rule to the EC2 wire shape.
func (r IngressRule) Permission() types.IpPermission {
	return types.IpPermission{
		IpProtocol: aws.String(r.Protocol),
		FromPort:   aws.Int32(r.Port),
		ToPort:     aws.Int32(r.Port),
		IpRanges:   []types.IpRange{{CidrIp: aws.String(r.CIDR)}},
	}
}

// ParseIngressRule parses proto:port:cidr, e.g. tcp:22:0.0.0.0/0.
func ParseIngressRule(s string) (IngressRule, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return IngressRule{}, fmt.Errorf("%w: %q, want proto:port:cidr", ErrInvalidRule, s)
	}
	proto := strings.ToLower(parts[0])
	switch proto {
	case "tcp", "udp":
	default:
		return IngressRule{}, fmt.Errorf("%w: unsupported protocol %q", ErrInvalidRule, parts[0])
	}
	port, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil || port < 1 || port > 65535 {
		return IngressRule{}, fmt.Errorf("%w: bad port %q", ErrInvalidRule, parts[1])
	}
	if !strings.Contains(parts[2], "/") {
		return IngressRule{}, fmt.Errorf("%w: source %q is not a CIDR", ErrInvalidRule, parts[2])
	}
	return IngressRule{Protocol: proto, Port: int32(port), CIDR: parts[2]}, nil
}

func ParseIngressRules(specs []string) ([]IngressRule, error) {
	rules := make([]IngressRule, 0, len(specs))
	for _, s := range specs {
		r, err := ParseIngressRule(s)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

type EnsureSecurityGroupInput struct {
	Name        string
	Description string
	Preview     bool
}

// EnsureSecurityGroup returns the id of the first group named exactly
// input.Name, creating it when none exists. Concurrent callers may both
// create a group; nothing guards against that.
func EnsureSecurityGroup(ctx context.Context, s *Session, log Logger, input EnsureSecurityGroupInput) (SecurityGroupRef, error) {
	ref := SecurityGroupRef{Name: input.Name}

	groups, err := listSecurityGroups(ctx, s, input.Name)
	if err != nil {
		return ref, fmt.Errorf("describing security groups: %w", err)
	}
	for _, g := range groups {
		if aws.ToString(g.GroupName) == input.Name {
			ref.ID = aws.ToString(g.GroupId)
			log.Info("security group found", "name", input.Name, "id", ref.ID)
			return ref, nil
		}
	}

	if input.Preview {
		log.Info(previewString(true)+"created security group", "name", input.Name)
		return ref, nil
	}

	out, err := call(ctx, s.Retry, func() (*ec2.CreateSecurityGroupOutput, error) {
		return s.EC2.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
			GroupName:   aws.String(input.Name),
			Description: aws.String(input.Description),
		})
	})
	if err != nil {
		return ref, fmt.Errorf("creating security group %s: %w", input.Name, err)
	}

	ref.ID = aws.ToString(out.GroupId)
	ref.Created = true
	log.Info("created security group", "name", input.Name, "id", ref.ID)
	return ref, nil
}

func listSecurityGroups(ctx context.Context, s *Session, name string) ([]types.SecurityGroup, error) {
	var groups []types.SecurityGroup
	p := ec2.NewDescribeSecurityGroupsPaginator(s.EC2, &ec2.DescribeSecurityGroupsInput{
		Filters: []types.Filter{{
			Name:   aws.String("group-name"),
			Values: []string{name},
		}},
	})
	for p.HasMorePages() {
		page, err := call(ctx, s.Retry, func() (*ec2.DescribeSecurityGroupsOutput, error) {
			return p.NextPage(ctx)
		})
		if err != nil {
			return nil, err
		}
		groups = append(groups, page.SecurityGroups...)
	}
	return groups, nil
}

// AuthorizeIngress adds rules to the group in a single request. It never
// fails the caller: a rejection, typically because the rules already exist,
// is logged and returned as a failed Outcome.
func AuthorizeIngress(ctx context.Context, s *Session, log Logger, groupID string, rules []IngressRule, preview bool) Outcome {
	perms := make([]types.IpPermission, 0, len(rules))
	for _, r := range rules {
		perms = append(perms, r.Permission())
	}

	if preview {
		log.Info(previewString(true)+"authorized ingress", "group", groupID, "rules", ruleList(rules))
		return succeeded(ingressStep, "preview")
	}
	if len(perms) == 0 {
		return succeeded(ingressStep, "no rules")
	}

	err := s.Retry.Do(ctx, func() error {
		_, err := s.EC2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
			GroupId:       aws.String(groupID),
			IpPermissions: perms,
		})
		return err
	})
	if err != nil {
		if apiErrorCode(err) == codeDuplicatePermission {
			log.Info("security rule already exists", "group", groupID, "rules", ruleList(rules))
			return failed(ingressStep, "rules already present", err)
		}
		log.Info("security rule not created", "group", groupID, "error", err)
		return failed(ingressStep, "authorization rejected", err)
	}

	log.Info("security rule created", "group", groupID, "rules", ruleList(rules))
	return succeeded(ingressStep, "")
}

func previewString(preview bool) string {
	if preview {
		return "preview: "
	}
	return ""
}
