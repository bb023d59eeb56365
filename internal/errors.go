package internal

import (
	"errors"

	"github.com/aws/smithy-go"
)

var (
	ErrEmptyKeyPath        = errors.New("key path is empty")
	ErrKeyPathIsDirectory  = errors.New("key path is a directory")
	ErrNoKeyMaterial       = errors.New("no key material to persist")
	ErrInvalidRule         = errors.New("invalid ingress rule")
	ErrKeychainUnsupported = errors.New("keychain integration is only supported on macOS")
)

// EC2 API error codes the provisioner branches on.
const (
	codeDuplicatePermission = "InvalidPermission.Duplicate"
	codeKeyPairNotFound     = "InvalidKeyPair.NotFound"
)

// apiErrorCode returns the service error code carried by err, or "".
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
