package internal

import (
	"fmt"
	"strings"
	"time"
)

// Zone is an availability zone as reported by DescribeAvailabilityZones.
type Zone struct {
	Name   string `json:"name" yaml:"name"`
	State  string `json:"state" yaml:"state"`
	Region string `json:"region" yaml:"region"`
}

// Image is a machine image matched by the image filter.
type Image struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Platform     string    `json:"platform" yaml:"platform"`
	CreationDate time.Time `json:"creation_date,omitempty" yaml:"creation_date,omitempty"`
}

// Identity is the caller the session is authenticated as.
type Identity struct {
	Account string `json:"account" yaml:"account"`
	Arn     string `json:"arn" yaml:"arn"`
	UserID  string `json:"user_id" yaml:"user_id"`
}

type SecurityGroupRef struct {
	Name    string `json:"name" yaml:"name"`
	ID      string `json:"id" yaml:"id"`
	Created bool   `json:"created" yaml:"created"`
}

// KeyPairRef identifies a key pair. Material is only populated when the pair
// was created by this process; the provider never returns it again.
type KeyPairRef struct {
	Name        string `json:"name" yaml:"name"`
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Created     bool   `json:"created" yaml:"created"`
	Material    []byte `json:"-" yaml:"-"`
}

// Outcome records the result of a best-effort step whose failure does not
// stop the pipeline.
type Outcome struct {
	Step   string `json:"step" yaml:"step"`
	OK     bool   `json:"ok" yaml:"ok"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
	Err    error  `json:"-" yaml:"-"`
}

func succeeded(step, reason string) Outcome {
	return Outcome{Step: step, OK: true, Reason: reason}
}

func failed(step, reason string, err error) Outcome {
	o := Outcome{Step: step, Reason: reason, Err: err}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

func (o Outcome) String() string {
	status := "ok"
	if !o.OK {
		status = "failed"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", o.Step, status)
	if o.Reason != "" {
		fmt.Fprintf(&b, " (%s)", o.Reason)
	}
	if o.Err != nil {
		fmt.Fprintf(&b, ": %v", o.Err)
	}
	return b.String()
}

// Report is everything one pipeline run produced.
type Report struct {
	Region        string           `json:"region" yaml:"region"`
	Preview       bool             `json:"preview" yaml:"preview"`
	Identity      Identity         `json:"identity" yaml:"identity"`
	Zones         []Zone           `json:"zones" yaml:"zones"`
	Images        []Image          `json:"images" yaml:"images"`
	SecurityGroup SecurityGroupRef `json:"security_group" yaml:"security_group"`
	Ingress       Outcome          `json:"ingress" yaml:"ingress"`
	KeyPair       KeyPairRef       `json:"key_pair" yaml:"key_pair"`
	KeyStores     []Outcome        `json:"key_stores,omitempty" yaml:"key_stores,omitempty"`
}

// Outcomes returns every best-effort result in pipeline order.
func (r *Report) Outcomes() []Outcome {
	out := []Outcome{}
	if r.Ingress.Step != "" {
		out = append(out, r.Ingress)
	}
	return append(out, r.KeyStores...)
}

// Degraded reports whether any suppressed step failed.
func (r *Report) Degraded() bool {
	for _, o := range r.Outcomes() {
		if !o.OK {
			return true
		}
	}
	return false
}
