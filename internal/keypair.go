package internal

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// KeyStore persists freshly created private key material.
type KeyStore interface {
	Name() string
	Store(keyName string, material []byte) error
}

type EnsureKeyPairInput struct {
	Name    string
	Stores  []KeyStore
	Preview bool
}

// EnsureKeyPair returns the key pair named input.Name, creating it when the
// provider does not know it. Private key material only exists at creation,
// so it is handed to every store right away; store failures are logged and
// reported but never returned as errors.
func EnsureKeyPair(ctx context.Context, s *Session, log Logger, input EnsureKeyPairInput) (KeyPairRef, []Outcome, error) {
	ref := KeyPairRef{Name: input.Name}

	out, err := call(ctx, s.Retry, func() (*ec2.DescribeKeyPairsOutput, error) {
		return s.EC2.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{
			KeyNames: []string{input.Name},
		})
	})
	if err != nil && apiErrorCode(err) != codeKeyPairNotFound {
		return ref, nil, fmt.Errorf("describing key pair %s: %w", input.Name, err)
	}

	if out != nil && len(out.KeyPairs) > 0 {
		info := out.KeyPairs[0]
		ref.Name = aws.ToString(info.KeyName)
		ref.ID = aws.ToString(info.KeyPairId)
		ref.Fingerprint = aws.ToString(info.KeyFingerprint)
		log.Info("existing key pair found", "name", ref.Name, "id", ref.ID, "fingerprint", ref.Fingerprint)
		return ref, nil, nil
	}

	if input.Preview {
		log.Info(previewString(true)+"created key pair", "name", input.Name)
		return ref, nil, nil
	}

	created, err := call(ctx, s.Retry, func() (*ec2.CreateKeyPairOutput, error) {
		return s.EC2.CreateKeyPair(ctx, &ec2.CreateKeyPairInput{
			KeyName: aws.String(input.Name),
		})
	})
	if err != nil {
		return ref, nil, fmt.Errorf("creating key pair %s: %w", input.Name, err)
	}

	ref.Name = aws.ToString(created.KeyName)
	ref.ID = aws.ToString(created.KeyPairId)
	ref.Fingerprint = aws.ToString(created.KeyFingerprint)
	ref.Created = true
	ref.Material = []byte(aws.ToString(created.KeyMaterial))
	log.Info("created a new key pair", "name", ref.Name, "id", ref.ID, "fingerprint", ref.Fingerprint)

	outcomes := make([]Outcome, 0, len(input.Stores))
	for _, store := range input.Stores {
		outcomes = append(outcomes, persistTo(store, log, ref))
	}
	return ref, outcomes, nil
}

func persistTo(store KeyStore, log Logger, ref KeyPairRef) Outcome {
	step := "persist key material to " + store.Name()
	if err := store.Store(ref.Name, ref.Material); err != nil {
		log.Info("could not write key pair material", "store", store.Name(), "error", err)
		return failed(step, "write failed", err)
	}
	log.Info("written key pair material", "store", store.Name())
	return succeeded(step, "")
}
