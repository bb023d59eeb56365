package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	rules, err := ParseIngressRules(DefaultRules)
	require.NoError(t, err)
	return Config{
		Region:                   DefaultRegion,
		ImageID:                  "ami-X",
		SecurityGroupName:        DefaultSecurityGroupName,
		SecurityGroupDescription: DefaultSecurityGroupDescription,
		Rules:                    rules,
		KeyPairName:              DefaultKeyPairName,
		KeyPath:                  filepath.Join(t.TempDir(), "assignment4.pem"),
		Output:                   "text",
		Retry:                    NoRetry,
	}
}

func scenarioEC2() *fakeEC2 {
	f := newFakeEC2()
	f.zones = []types.AvailabilityZone{{
		ZoneName:   aws.String("us-east-1a"),
		State:      types.AvailabilityZoneStateAvailable,
		RegionName: aws.String("us-east-1"),
	}}
	f.images = []types.Image{{
		ImageId: aws.String("ami-X"),
		Name:    aws.String("ubuntu"),
	}}
	return f
}

// countingRunner records step titles so tests can assert ordering.
type countingRunner struct {
	titles []string
}

func (r *countingRunner) Run(ctx context.Context, title string, fn func(context.Context) error) error {
	r.titles = append(r.titles, title)
	return fn(ctx)
}

// stepFailRunner returns err instead of running steps whose title starts
// with prefix.
type stepFailRunner struct {
	prefix string
	err    error
}

func (r stepFailRunner) Run(ctx context.Context, title string, fn func(context.Context) error) error {
	if strings.HasPrefix(title, r.prefix) {
		return r.err
	}
	return fn(ctx)
}

// cancelingRunner cancels the step context before running steps whose
// title starts with prefix, the way Ctrl+C does mid-step.
type cancelingRunner struct {
	prefix string
}

func (r cancelingRunner) Run(ctx context.Context, title string, fn func(context.Context) error) error {
	if !strings.HasPrefix(title, r.prefix) {
		return fn(ctx)
	}
	stepCtx, cancel := context.WithCancel(ctx)
	cancel()
	if err := fn(stepCtx); err != nil {
		return err
	}
	return context.Canceled
}

func TestPipelineEndToEnd(t *testing.T) {
	f := scenarioEC2()
	cfg := testConfig(t)
	logger, buf := newTestLogger(t)
	runner := &countingRunner{}

	p := NewPipeline(newTestSession(f), cfg, logger)
	p.Runner = runner
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Zone{{Name: "us-east-1a", State: "available", Region: "us-east-1"}}, report.Zones)
	require.Len(t, report.Images, 1)
	assert.Equal(t, "ami-X", report.Images[0].ID)
	assert.Equal(t, "ubuntu", report.Images[0].Name)

	require.NotNil(t, f.imagesInput)
	require.Len(t, f.imagesInput.Filters, 1)
	assert.Equal(t, "image-id", aws.ToString(f.imagesInput.Filters[0].Name))
	assert.Equal(t, []string{"ami-X"}, f.imagesInput.Filters[0].Values)

	assert.Equal(t, 1, f.createGroupCalls)
	require.Len(t, f.authorizeCalls, 1)
	assert.Len(t, f.authorizeCalls[0].IpPermissions, 2)
	assert.True(t, report.Ingress.OK)

	assert.Equal(t, 1, f.createKeyCalls)
	assert.True(t, report.KeyPair.Created)
	require.Len(t, report.KeyStores, 1)
	assert.True(t, report.KeyStores[0].OK)
	got, err := os.ReadFile(cfg.KeyPath)
	require.NoError(t, err)
	assert.Equal(t, "MOCK-KEY-DATA", string(got))

	assert.False(t, report.Degraded())
	assert.Equal(t, "123456789012", report.Identity.Account)
	assert.Len(t, runner.titles, 6)
	assert.Contains(t, buf.String(), "EC2 client initialized")
	assert.Contains(t, buf.String(), "us-east-1a")
}

func TestPipelineRerunIsIdempotent(t *testing.T) {
	f := scenarioEC2()
	cfg := testConfig(t)
	logger, _ := newTestLogger(t)
	s := newTestSession(f)

	_, err := NewPipeline(s, cfg, logger).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.Remove(cfg.KeyPath))

	report, err := NewPipeline(s, cfg, logger).Run(context.Background())
	require.NoError(t, err, "duplicate ingress must not surface as an error")

	assert.Equal(t, 1, f.createGroupCalls)
	assert.Equal(t, 1, f.createKeyCalls)
	assert.False(t, report.SecurityGroup.Created)
	assert.False(t, report.KeyPair.Created)
	assert.False(t, report.Ingress.OK)
	assert.Equal(t, "rules already present", report.Ingress.Reason)
	assert.True(t, report.Degraded())

	_, err = os.Stat(cfg.KeyPath)
	assert.True(t, os.IsNotExist(err), "existing key pair must not write a file")
}

func TestPipelineKeyPathDirectoryIsReported(t *testing.T) {
	f := scenarioEC2()
	cfg := testConfig(t)
	cfg.KeyPath = t.TempDir()
	logger, _ := newTestLogger(t)

	report, err := NewPipeline(newTestSession(f), cfg, logger).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.KeyStores, 1)
	assert.False(t, report.KeyStores[0].OK)
	assert.ErrorIs(t, report.KeyStores[0].Err, ErrKeyPathIsDirectory)
	assert.True(t, report.Degraded())
}

func TestPipelineFatalStepStops(t *testing.T) {
	f := scenarioEC2()
	f.failNext("DescribeImages", apiError("AuthFailure"))
	logger, _ := newTestLogger(t)

	_, err := NewPipeline(newTestSession(f), testConfig(t), logger).Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, f.createGroupCalls)
	assert.Zero(t, f.createKeyCalls)
}

func TestPipelineIdentityFailureIsFatal(t *testing.T) {
	f := scenarioEC2()
	s := NewSessionFromClients(DefaultRegion, "", f, &fakeSTS{err: apiError("ExpiredToken")}, NoRetry)
	logger, _ := newTestLogger(t)

	_, err := NewPipeline(s, testConfig(t), logger).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "ExpiredToken", apiErrorCode(err))
}

func TestPipelinePreviewCreatesNothing(t *testing.T) {
	f := scenarioEC2()
	cfg := testConfig(t)
	cfg.Preview = true
	logger, _ := newTestLogger(t)

	report, err := NewPipeline(newTestSession(f), cfg, logger).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Preview)
	assert.Zero(t, f.createGroupCalls)
	assert.Zero(t, f.createKeyCalls)
	assert.Empty(t, f.authorizeCalls)
	_, err = os.Stat(cfg.KeyPath)
	assert.True(t, os.IsNotExist(err))
}

func TestNewPipelineStores(t *testing.T) {
	cfg := testConfig(t)
	logger, _ := newTestLogger(t)

	p := NewPipeline(newTestSession(newFakeEC2()), cfg, logger)
	require.Len(t, p.Stores, 1)
	assert.Equal(t, FileStore{Path: cfg.KeyPath}, p.Stores[0])

	cfg.Keychain = true
	p = NewPipeline(newTestSession(newFakeEC2()), cfg, logger)
	require.Len(t, p.Stores, 2)
	assert.Equal(t, "keychain:"+AppName, p.Stores[1].Name())
}

func TestPipelineIngressStepNotRunIsDegraded(t *testing.T) {
	f := scenarioEC2()
	logger, _ := newTestLogger(t)

	p := NewPipeline(newTestSession(f), testConfig(t), logger)
	p.Runner = stepFailRunner{prefix: "Authorizing ingress", err: errors.New("renderer failed")}
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, f.authorizeCalls)
	assert.Equal(t, ingressStep, report.Ingress.Step)
	assert.False(t, report.Ingress.OK)
	assert.Equal(t, "step not run", report.Ingress.Reason)
	assert.Equal(t, "renderer failed", report.Ingress.Error)
	assert.True(t, report.Degraded())
	assert.True(t, report.KeyPair.Created)
}

func TestPipelineCanceledIngressStops(t *testing.T) {
	f := scenarioEC2()
	logger, _ := newTestLogger(t)

	p := NewPipeline(newTestSession(f), testConfig(t), logger)
	p.Runner = stepFailRunner{prefix: "Authorizing ingress", err: context.Canceled}
	report, err := p.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	assert.True(t, report.Degraded())
	assert.Zero(t, f.createKeyCalls)
}

func TestPipelineCanceledRunSkipsKeyPair(t *testing.T) {
	f := scenarioEC2()
	logger, _ := newTestLogger(t)
	ctx, cancel := context.WithCancel(context.Background())

	p := NewPipeline(newTestSession(f), testConfig(t), logger)
	p.Runner = &cancelOnStepRunner{prefix: "Authorizing ingress", cancel: cancel}
	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.createKeyCalls)
}

func TestPipelineKeyPairStepCompletesWhenCanceled(t *testing.T) {
	f := scenarioEC2()
	cfg := testConfig(t)
	logger, _ := newTestLogger(t)

	p := NewPipeline(newTestSession(f), cfg, logger)
	p.Runner = cancelingRunner{prefix: "Ensuring key pair"}
	report, err := p.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1, f.createKeyCalls)
	assert.True(t, report.KeyPair.Created)
	got, err := os.ReadFile(cfg.KeyPath)
	require.NoError(t, err)
	assert.Equal(t, "MOCK-KEY-DATA", string(got))
}

// cancelOnStepRunner cancels the whole run once the step starting with
// prefix has finished.
type cancelOnStepRunner struct {
	prefix string
	cancel context.CancelFunc
}

func (r *cancelOnStepRunner) Run(ctx context.Context, title string, fn func(context.Context) error) error {
	err := fn(ctx)
	if strings.HasPrefix(title, r.prefix) {
		r.cancel()
	}
	return err
}
