package internal

import (
	"context"
	"errors"
	"strings"
)

const ingressStep = "authorize ingress"

// StepRunner wraps each pipeline step, e.g. to draw a spinner around it.
// Run must not return before fn has returned; it may cancel the context
// passed to fn.
type StepRunner interface {
	Run(ctx context.Context, title string, fn func(ctx context.Context) error) error
}

// PlainRunner runs steps with no decoration.
type PlainRunner struct{}

func (PlainRunner) Run(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

// Pipeline provisions the baseline resources in a fixed order: caller
// identity, zones, images, security group and ingress, key pair.
type Pipeline struct {
	Session *Session
	Config  Config
	Log     Logger
	Stores  []KeyStore
	Runner  StepRunner
}

// KeyStoresFor returns the stores new key material is written to. The file
// store for cfg.KeyPath is always present; the keychain store is added when
// cfg.Keychain is set.
func KeyStoresFor(cfg Config) []KeyStore {
	stores := []KeyStore{FileStore{Path: cfg.KeyPath}}
	if cfg.Keychain {
		stores = append(stores, NewKeychainStore())
	}
	return stores
}

func NewPipeline(s *Session, cfg Config, log Logger) *Pipeline {
	return &Pipeline{
		Session: s,
		Config:  cfg,
		Log:     log,
		Stores:  KeyStoresFor(cfg),
		Runner:  PlainRunner{},
	}
}

// Run executes every step. The returned error is set only for fatal
// failures; ingress and key persistence failures are recorded in the report.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	cfg := p.Config
	report := &Report{Region: p.Session.Region, Preview: cfg.Preview}
	runner := p.Runner
	if runner == nil {
		runner = PlainRunner{}
	}

	p.Log.Info("EC2 client initialized", "region", p.Session.Region, "profile", p.Session.Profile)

	if err := runner.Run(ctx, "Checking caller identity", func(ctx context.Context) error {
		id, err := CallerIdentity(ctx, p.Session)
		if err != nil {
			return err
		}
		report.Identity = id
		p.Log.Info("caller identity", "account", id.Account, "arn", id.Arn)
		return nil
	}); err != nil {
		return report, err
	}

	if err := runner.Run(ctx, "Listing availability zones", func(ctx context.Context) error {
		zones, err := ListAvailabilityZones(ctx, p.Session)
		if err != nil {
			return err
		}
		report.Zones = zones
		for _, z := range zones {
			p.Log.Info("zone", "name", z.Name, "state", z.State, "region", z.Region)
		}
		return nil
	}); err != nil {
		return report, err
	}

	if err := runner.Run(ctx, "Looking up images", func(ctx context.Context) error {
		images, err := ListImages(ctx, p.Session, cfg.ImageID)
		if err != nil {
			return err
		}
		report.Images = images
		for _, img := range images {
			p.Log.Info("image", "name", img.Name, "id", img.ID, "platform", img.Platform)
		}
		if len(images) == 0 {
			p.Log.Warn("no image matched", "id", cfg.ImageID)
		}
		return nil
	}); err != nil {
		return report, err
	}

	if err := runner.Run(ctx, "Ensuring security group "+cfg.SecurityGroupName, func(ctx context.Context) error {
		ref, err := EnsureSecurityGroup(ctx, p.Session, p.Log, EnsureSecurityGroupInput{
			Name:        cfg.SecurityGroupName,
			Description: cfg.SecurityGroupDescription,
			Preview:     cfg.Preview,
		})
		if err != nil {
			return err
		}
		report.SecurityGroup = ref
		return nil
	}); err != nil {
		return report, err
	}

	if err := runner.Run(ctx, "Authorizing ingress "+ruleList(cfg.Rules), func(ctx context.Context) error {
		report.Ingress = AuthorizeIngress(ctx, p.Session, p.Log, report.SecurityGroup.ID, cfg.Rules, cfg.Preview)
		return nil
	}); err != nil {
		if report.Ingress.Step == "" {
			report.Ingress = failed(ingressStep, "step not run", err)
		}
		if errors.Is(err, context.Canceled) {
			return report, err
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	// Key material exists only in the CreateKeyPair response, so a started
	// key pair step runs to completion even when cancelled.
	if err := runner.Run(ctx, "Ensuring key pair "+cfg.KeyPairName, func(ctx context.Context) error {
		ref, outcomes, err := EnsureKeyPair(context.WithoutCancel(ctx), p.Session, p.Log, EnsureKeyPairInput{
			Name:    cfg.KeyPairName,
			Stores:  p.Stores,
			Preview: cfg.Preview,
		})
		if err != nil {
			return err
		}
		report.KeyPair = ref
		report.KeyStores = outcomes
		return nil
	}); err != nil {
		return report, err
	}

	if report.Degraded() {
		for _, o := range report.Outcomes() {
			if !o.OK {
				p.Log.Warn("step did not complete", "step", o.Step, "reason", o.Reason)
			}
		}
	}
	return report, nil
}

func ruleList(rules []IngressRule) string {
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.String())
	}
	return strings.Join(names, " ")
}
