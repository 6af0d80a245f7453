package config

import (
	"fmt"
	"net/url"
	"time"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for bridge client configuration
const (
	EnvBridgeOctezClient     = "BRIDGE_OCTEZ_CLIENT"
	EnvBridgeRPCURL          = "BRIDGE_RPC_URL"
	EnvBridgeBaseDir         = "BRIDGE_BASE_DIR"
	EnvBridgeNetwork         = "BRIDGE_NETWORK"
	EnvBridgeSource          = "BRIDGE_SOURCE"
	EnvBridgeBurnCap         = "BRIDGE_BURN_CAP"
	EnvBridgePrivateKey      = "BRIDGE_PRIVATE_KEY"
	EnvBridgeRemoteSignerURL = "BRIDGE_REMOTE_SIGNER_URL"
	EnvBridgeRemoteSignerPKH = "BRIDGE_REMOTE_SIGNER_ADDRESS"
	EnvBridgeJournalType     = "BRIDGE_JOURNAL_TYPE"
	EnvBridgeJournalPath     = "BRIDGE_JOURNAL_PATH"
	EnvBridgeRedisAddress    = "BRIDGE_REDIS_ADDRESS"
	EnvBridgeRedisPassword   = "BRIDGE_REDIS_PASSWORD"
	EnvBridgeMessagePrefix   = "BRIDGE_MESSAGE_PREFIX"
	EnvBridgeDebug           = "BRIDGE_DEBUG"
)

type NetworkName string

const (
	NetworkName_Mainnet  NetworkName = "mainnet"
	NetworkName_Ghostnet NetworkName = "ghostnet"
	NetworkName_Sandbox  NetworkName = "sandbox"
)

func (n NetworkName) String() string {
	return string(n)
}

// DefaultMessagePrefix is the inbox discriminator byte of transfer messages.
const DefaultMessagePrefix byte = 0x55

// NetworkSettings are the defaults applied when a network is selected by name.
type NetworkSettings struct {
	RpcUrl        string
	MessagePrefix byte
	// Confirmations octez-client waits for before returning.
	Confirmations int
	// Timeout is a sensible upper bound for one submit on this network.
	Timeout       time.Duration
}

var Networks = map[NetworkName]*NetworkSettings{
	NetworkName_Mainnet: {
		RpcUrl:        "https://mainnet.smartpy.io",
		MessagePrefix: DefaultMessagePrefix,
		Confirmations: 1,
		Timeout:       5 * time.Minute,
	},
	NetworkName_Ghostnet: {
		RpcUrl:        "https://ghostnet.smartpy.io",
		MessagePrefix: DefaultMessagePrefix,
		Confirmations: 1,
		Timeout:       3 * time.Minute,
	},
	NetworkName_Sandbox: {
		RpcUrl:        "http://localhost:20000",
		MessagePrefix: DefaultMessagePrefix,
		Confirmations: 0,
		Timeout:       30 * time.Second,
	},
}

func GetNetworkSettings(name NetworkName) (*NetworkSettings, error) {
	settings, ok := Networks[name]
	if !ok {
		return nil, fmt.Errorf("unsupported network: %s", name)
	}
	return settings, nil
}

// GetSupportedNetworks returns all supported network names
func GetSupportedNetworks() []NetworkName {
	return []NetworkName{
		NetworkName_Mainnet,
		NetworkName_Ghostnet,
		NetworkName_Sandbox,
	}
}

// GetSupportedNetworksString returns supported networks for CLI help
func GetSupportedNetworksString() string {
	return fmt.Sprintf("%s, %s, %s", NetworkName_Mainnet, NetworkName_Ghostnet, NetworkName_Sandbox)
}

type JournalType string

const (
	JournalType_Memory JournalType = "memory"
	JournalType_Badger JournalType = "badger"
	JournalType_Redis  JournalType = "redis"
)

type JournalConfig struct {
	Type          JournalType `json:"type" yaml:"type"`
	Path          string      `json:"path" yaml:"path"`
	RedisAddress  string      `json:"redisAddress" yaml:"redisAddress"`
	RedisPassword string      `json:"redisPassword" yaml:"redisPassword"`
	RedisDB       int         `json:"redisDb" yaml:"redisDb"`
}

// Persistent reports whether submissions outlive the process. Only a persistent
// journal can be trusted to suggest nonces.
func (jc *JournalConfig) Persistent() bool {
	return jc.Type == JournalType_Badger || jc.Type == JournalType_Redis
}

func (jc *JournalConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	switch jc.Type {
	case JournalType_Memory:
	case JournalType_Badger:
		if jc.Path == "" {
			allErrors = append(allErrors, field.Required(path.Child("path"), "path is required for the badger journal"))
		}
	case JournalType_Redis:
		if jc.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(path.Child("redisAddress"), "redisAddress is required for the redis journal"))
		}
		if jc.RedisDB < 0 {
			allErrors = append(allErrors, field.Invalid(path.Child("redisDb"), jc.RedisDB, "must be non-negative"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), jc.Type,
			[]string{string(JournalType_Memory), string(JournalType_Badger), string(JournalType_Redis)}))
	}
	return allErrors
}

// BridgeClientConfig represents the complete configuration of the bridge client
type BridgeClientConfig struct {
	// External octez-client binary and the node it talks to
	OctezClient string      `json:"octezClient" yaml:"octezClient"`
	Network     NetworkName `json:"network" yaml:"network"`
	RpcUrl      string      `json:"rpcUrl" yaml:"rpcUrl"`
	BaseDir     string      `json:"baseDir" yaml:"baseDir"`

	// Account paying for base chain operations, as an octez-client alias or address
	Source  string `json:"source" yaml:"source"`
	BurnCap string `json:"burnCap" yaml:"burnCap"`

	// Transfer signing: either a local edsk key or a remote signer
	PrivateKey   string              `json:"privateKey" yaml:"privateKey"`
	RemoteSigner *RemoteSignerConfig `json:"remoteSigner,omitempty" yaml:"remoteSigner,omitempty"`

	MessagePrefix byte          `json:"messagePrefix" yaml:"messagePrefix"`
	Journal       JournalConfig `json:"journal" yaml:"journal"`

	Debug bool `json:"debug" yaml:"debug"`
}

// NewBridgeClientConfig returns a configuration for network with its defaults applied.
func NewBridgeClientConfig(network NetworkName) (*BridgeClientConfig, error) {
	settings, err := GetNetworkSettings(network)
	if err != nil {
		return nil, err
	}
	return &BridgeClientConfig{
		OctezClient:   "octez-client",
		Network:       network,
		RpcUrl:        settings.RpcUrl,
		MessagePrefix: settings.MessagePrefix,
		Journal:       JournalConfig{Type: JournalType_Memory},
	}, nil
}

// Validate validates the bridge client configuration. Signing keys are only required by
// commands that sign, so a config without one is valid here; see ValidateSigner.
func (c *BridgeClientConfig) Validate() error {
	var allErrors field.ErrorList
	if c.OctezClient == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("octezClient"), "octezClient is required"))
	}
	if _, ok := Networks[c.Network]; !ok {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("network"), c.Network,
			[]string{string(NetworkName_Mainnet), string(NetworkName_Ghostnet), string(NetworkName_Sandbox)}))
	}
	if c.RpcUrl != "" {
		if u, err := url.Parse(c.RpcUrl); err != nil || u.Scheme == "" || u.Host == "" {
			allErrors = append(allErrors, field.Invalid(field.NewPath("rpcUrl"), c.RpcUrl, "must be an absolute URL"))
		}
	}
	allErrors = append(allErrors, c.Journal.validate(field.NewPath("journal"))...)
	if c.PrivateKey != "" && c.RemoteSigner != nil {
		allErrors = append(allErrors, field.Forbidden(field.NewPath("remoteSigner"), "privateKey and remoteSigner are mutually exclusive"))
	}
	if c.RemoteSigner != nil {
		if err := c.RemoteSigner.Validate(); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("remoteSigner"), c.RemoteSigner.Url, err.Error()))
		}
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// ValidateSigner checks that exactly one way of signing transfers is configured.
func (c *BridgeClientConfig) ValidateSigner() error {
	if c.PrivateKey == "" && c.RemoteSigner == nil {
		return field.Required(field.NewPath("privateKey"), "a private key or a remote signer is required to sign transfers")
	}
	return nil
}

// RemoteSignerConfig points at an octez-signer compatible HTTP service
type RemoteSignerConfig struct {
	Url     string `json:"url" yaml:"url"`
	CACert  string `json:"caCert" yaml:"caCert"`
	Cert    string `json:"cert" yaml:"cert"`
	Key     string `json:"key" yaml:"key"`
	Address string `json:"address" yaml:"address"`

	// RequestsPerSecond throttles signing requests; zero means unlimited.
	RequestsPerSecond float64 `json:"requestsPerSecond" yaml:"requestsPerSecond"`
}

func (rsc *RemoteSignerConfig) Validate() error {
	var allErrors field.ErrorList
	if rsc.Url == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("url"), "url is required"))
	}
	if rsc.Address == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("address"), "address is required"))
	}
	if rsc.RequestsPerSecond < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("requestsPerSecond"), rsc.RequestsPerSecond, "must be non-negative"))
	}
	if (rsc.Cert == "") != (rsc.Key == "") {
		allErrors = append(allErrors, field.Invalid(field.NewPath("cert"), rsc.Cert, "cert and key must be set together"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
