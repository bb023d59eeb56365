package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AppName = "ec2provision"

	DefaultRegion                   = "us-east-1"
	DefaultImageID                  = "ami-07ebfd5b3428b6f4d" // Ubuntu Server 18.04 LTS (HVM), SSD, x86_64
	DefaultSecurityGroupName        = "assignment4"
	DefaultSecurityGroupDescription = "Assignment 4 security group"
	DefaultKeyPairName              = "assignment4"
	DefaultCIDR                     = "0.0.0.0/0"
)

// DefaultRules opens SSH and HTTP to every source.
var DefaultRules = []string{"tcp:22:" + DefaultCIDR, "tcp:80:" + DefaultCIDR}

// Config keys, shared by viper defaults, env vars and flag bindings.
const (
	KeyRegion        = "region"
	KeyProfile       = "profile"
	KeyImageID       = "image_id"
	KeySGName        = "sg_name"
	KeySGDescription = "sg_description"
	KeyRules         = "rules"
	KeyKeyName       = "key_name"
	KeyKeyPath       = "key_path"
	KeyKeychain      = "keychain"
	KeyPreview       = "preview"
	KeyStrict        = "strict"
	KeyOutput        = "output"
	KeyLogLevel      = "log_level"
	KeyRetryAttempts = "retry.attempts"
	KeyRetryDelay    = "retry.delay"
	KeyRetryMaxDelay = "retry.max_delay"
)

// Config is the resolved provisioning configuration.
type Config struct {
	Region                   string
	Profile                  string
	ImageID                  string
	SecurityGroupName        string
	SecurityGroupDescription string
	Rules                    []IngressRule
	KeyPairName              string
	KeyPath                  string
	Keychain                 bool
	Preview                  bool
	Strict                   bool
	Output                   string
	LogLevel                 string
	Retry                    RetryPolicy
}

// NewViper returns a viper instance with every default set, reading
// EC2PROVISION_* environment variables and, if present, configFile (or
// ~/.ec2provision/config.yaml when configFile is empty).
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyRegion, DefaultRegion)
	v.SetDefault(KeyProfile, "")
	v.SetDefault(KeyImageID, DefaultImageID)
	v.SetDefault(KeySGName, DefaultSecurityGroupName)
	v.SetDefault(KeySGDescription, DefaultSecurityGroupDescription)
	v.SetDefault(KeyRules, DefaultRules)
	v.SetDefault(KeyKeyName, DefaultKeyPairName)
	v.SetDefault(KeyKeyPath, "")
	v.SetDefault(KeyKeychain, false)
	v.SetDefault(KeyPreview, false)
	v.SetDefault(KeyStrict, false)
	v.SetDefault(KeyOutput, "text")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyRetryAttempts, 1)
	v.SetDefault(KeyRetryDelay, time.Second)
	v.SetDefault(KeyRetryMaxDelay, 20*time.Second)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
		return v, nil
	}

	v.SetConfigFile(filepath.Join(AppDir(), "config.yaml"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// LoadConfig resolves a Config from v and validates it.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Region:                   v.GetString(KeyRegion),
		Profile:                  v.GetString(KeyProfile),
		ImageID:                  v.GetString(KeyImageID),
		SecurityGroupName:        v.GetString(KeySGName),
		SecurityGroupDescription: v.GetString(KeySGDescription),
		KeyPairName:              v.GetString(KeyKeyName),
		KeyPath:                  v.GetString(KeyKeyPath),
		Keychain:                 v.GetBool(KeyKeychain),
		Preview:                  v.GetBool(KeyPreview),
		Strict:                   v.GetBool(KeyStrict),
		Output:                   v.GetString(KeyOutput),
		LogLevel:                 v.GetString(KeyLogLevel),
		Retry: RetryPolicy{
			Attempts: v.GetUint(KeyRetryAttempts),
			Delay:    v.GetDuration(KeyRetryDelay),
			MaxDelay: v.GetDuration(KeyRetryMaxDelay),
		},
	}

	rules, err := ParseIngressRules(v.GetStringSlice(KeyRules))
	if err != nil {
		return Config{}, err
	}
	cfg.Rules = rules

	if cfg.KeyPath == "" {
		cfg.KeyPath = DefaultKeyPath(cfg.KeyPairName)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields every command relies on.
func (c Config) Validate() error {
	switch {
	case c.Region == "":
		return fmt.Errorf("region is required")
	case c.ImageID == "":
		return fmt.Errorf("image id is required")
	case c.SecurityGroupName == "":
		return fmt.Errorf("security group name is required")
	case c.KeyPairName == "":
		return fmt.Errorf("key pair name is required")
	case c.KeyPath == "":
		return ErrEmptyKeyPath
	}
	switch c.Output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", c.Output)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
