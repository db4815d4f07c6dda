// Copyright (C) 2025 ScyllaDB

package session

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/scylladb/scyllaquery/pkg/driver/gocqldriver"
	"github.com/scylladb/scyllaquery/pkg/profile"
	"github.com/scylladb/scyllaquery/pkg/util/cfgutil"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"sigs.k8s.io/yaml"
)

// Config specifies the Session configuration.
type Config struct {
	// Hosts are the contact points, host or host:port.
	Hosts []string `json:"hosts" yaml:"hosts"`
	// Username and Password are set both or not at all.
	Username string                 `json:"username,omitempty" yaml:"username"`
	Password string                 `json:"password,omitempty" yaml:"password"`
	TLS      *gocqldriver.TLSConfig `json:"tls,omitempty" yaml:"tls"`
	Keyspace string                 `json:"keyspace,omitempty" yaml:"keyspace"`
	// KeyspaceCaseSensitive keeps the keyspace name as given, otherwise it
	// is lowercased the way unquoted CQL identifiers are.
	KeyspaceCaseSensitive bool          `json:"keyspaceCaseSensitive,omitempty" yaml:"keyspace_case_sensitive"`
	ConnectTimeout        time.Duration `json:"connectTimeout" yaml:"connect_timeout"`
	// PoolSizePerHost is the number of connections per host, or per shard
	// when the cluster is shard aware.
	PoolSizePerHost int           `json:"poolSizePerHost" yaml:"pool_size_per_host"`
	Keepalive       time.Duration `json:"keepalive" yaml:"keepalive"`
	TCPNoDelay      bool          `json:"tcpNoDelay" yaml:"tcp_nodelay"`
	// WriteCoalesceWait is how long writes are held to be sent together,
	// zero disables coalescing.
	WriteCoalesceWait        time.Duration `json:"writeCoalesceWait" yaml:"write_coalesce_wait"`
	DisableShardAwarePort    bool          `json:"disableShardAwarePort,omitempty" yaml:"disable_shard_aware_port"`
	DisableInitialHostLookup bool          `json:"disableInitialHostLookup,omitempty" yaml:"disable_initial_host_lookup"`
	// ProtocolVersion of zero lets the driver negotiate.
	ProtocolVersion int  `json:"protocolVersion,omitempty" yaml:"protocol_version"`
	Compression     bool `json:"compression,omitempty" yaml:"compression"`
	// PageSize is the default number of rows per page.
	PageSize int `json:"pageSize" yaml:"page_size"`
	// Profile is the session default execution profile.
	Profile profile.Config `json:"profile" yaml:"profile"`
	// Backoff is applied when connecting on startup.
	Backoff BackoffConfig `json:"backoff" yaml:"backoff"`
}

// BackoffConfig specifies startup exponential backoff parameters.
type BackoffConfig struct {
	WaitMin    time.Duration `json:"waitMin" yaml:"wait_min"`
	WaitMax    time.Duration `json:"waitMax" yaml:"wait_max"`
	MaxRetries uint64        `json:"maxRetries" yaml:"max_retries"`
	Multiplier float64       `json:"multiplier" yaml:"multiplier"`
	Jitter     float64       `json:"jitter" yaml:"jitter"`
}

// DefaultConfig returns a Config initialized with default values.
func DefaultConfig() Config {
	return Config{
		Hosts:           []string{"127.0.0.1:9042"},
		ConnectTimeout:  5 * time.Second,
		PoolSizePerHost: 1,
		Keepalive:       15 * time.Second,
		TCPNoDelay:      true,
		PageSize:        5000,
		Profile:         profile.DefaultConfig(),
		Backoff: BackoffConfig{
			WaitMin:    time.Second,
			WaitMax:    30 * time.Second,
			MaxRetries: 5,
			Multiplier: 2,
			Jitter:     0.2,
		},
	}
}

// Validate checks if all the fields are properly set.
func (c Config) Validate() error {
	var err error
	if len(c.Hosts) == 0 {
		err = multierr.Append(err, errors.New("missing hosts"))
	}
	for _, h := range c.Hosts {
		if strings.TrimSpace(h) == "" {
			err = multierr.Append(err, errors.New("empty host"))
			break
		}
	}
	if (c.Username == "") != (c.Password == "") {
		err = multierr.Append(err, errors.New("username and password must be set together"))
	}
	if c.TLS != nil && (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		err = multierr.Append(err, errors.New("tls cert_file and key_file must be set together"))
	}
	if strings.Contains(c.Keyspace, `"`) {
		err = multierr.Append(err, errors.Errorf("invalid keyspace %q", c.Keyspace))
	}
	if c.ConnectTimeout < 0 {
		err = multierr.Append(err, errors.New("connect_timeout must not be negative"))
	}
	if c.PoolSizePerHost < 0 {
		err = multierr.Append(err, errors.New("pool_size_per_host must not be negative"))
	}
	if c.WriteCoalesceWait < 0 {
		err = multierr.Append(err, errors.New("write_coalesce_wait must not be negative"))
	}
	if c.ProtocolVersion != 0 && (c.ProtocolVersion < 3 || c.ProtocolVersion > 4) {
		err = multierr.Append(err, errors.Errorf("unsupported protocol_version %d", c.ProtocolVersion))
	}
	if c.PageSize < 0 {
		err = multierr.Append(err, errors.New("page_size must not be negative"))
	}
	if c.Backoff.Multiplier < 1 {
		err = multierr.Append(err, errors.New("backoff multiplier must be at least 1"))
	}
	if c.Backoff.Jitter < 0 || c.Backoff.Jitter > 1 {
		err = multierr.Append(err, errors.New("backoff jitter must be in [0, 1]"))
	}
	err = multierr.Append(err, c.Profile.Validate())
	return err
}

// AddFlags binds the connection settings to fs. The profile is configured
// with files only.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringSliceVar(&c.Hosts, "hosts", c.Hosts, "Contact points, host or host:port.")
	fs.StringVar(&c.Username, "username", c.Username, "Username for password authentication.")
	fs.StringVar(&c.Password, "password", c.Password, "Password for password authentication.")
	fs.StringVar(&c.Keyspace, "keyspace", c.Keyspace, "Keyspace used by the session.")
	fs.BoolVar(&c.KeyspaceCaseSensitive, "keyspace-case-sensitive", c.KeyspaceCaseSensitive, "Use the keyspace name as given instead of lowercasing it.")
	fs.DurationVar(&c.ConnectTimeout, "connect-timeout", c.ConnectTimeout, "Timeout of opening a connection.")
	fs.IntVar(&c.PoolSizePerHost, "pool-size-per-host", c.PoolSizePerHost, "Number of connections per host or shard.")
	fs.DurationVar(&c.Keepalive, "keepalive", c.Keepalive, "TCP keepalive interval.")
	fs.BoolVar(&c.TCPNoDelay, "tcp-nodelay", c.TCPNoDelay, "Disable Nagle's algorithm on connections.")
	fs.DurationVar(&c.WriteCoalesceWait, "write-coalesce-wait", c.WriteCoalesceWait, "How long writes are held to be sent together.")
	fs.BoolVar(&c.DisableShardAwarePort, "disable-shard-aware-port", c.DisableShardAwarePort, "Connect to the regular port only.")
	fs.BoolVar(&c.DisableInitialHostLookup, "disable-initial-host-lookup", c.DisableInitialHostLookup, "Use the contact points only, without discovering peers.")
	fs.IntVar(&c.ProtocolVersion, "protocol-version", c.ProtocolVersion, "Native protocol version, 0 negotiates.")
	fs.BoolVar(&c.Compression, "compression", c.Compression, "Compress frames with snappy.")
	fs.IntVar(&c.PageSize, "page-size", c.PageSize, "Default number of rows per page.")
}

// LoadConfig reads files on top of DefaultConfig, later files take
// precedence. Missing files are skipped.
func LoadConfig(files ...string) (Config, error) {
	c := DefaultConfig()
	if err := cfgutil.ParseYAML(&c, files...); err != nil {
		return c, errors.Wrap(err, "parse config")
	}
	if err := c.Validate(); err != nil {
		return c, errors.Wrap(err, "invalid config")
	}
	return c, nil
}

// String returns the config as YAML with the password redacted.
func (c Config) String() string {
	if c.Password != "" {
		c.Password = "<redacted>"
	}
	if c.TLS != nil {
		tls := *c.TLS
		if tls.CAPEM != "" {
			tls.CAPEM = "<redacted>"
		}
		c.TLS = &tls
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(b)
}

// keyspace returns name as the server knows it.
func keyspace(name string, caseSensitive bool) string {
	if caseSensitive {
		return name
	}
	return strings.ToLower(name)
}

func (c Config) driverConfig(m *gocqldriver.Metrics) gocqldriver.Config {
	return gocqldriver.Config{
		Hosts:                    c.Hosts,
		Username:                 c.Username,
		Password:                 c.Password,
		TLS:                      c.TLS,
		Keyspace:                 keyspace(c.Keyspace, c.KeyspaceCaseSensitive),
		ConnectTimeout:           c.ConnectTimeout,
		Timeout:                  c.Profile.RequestTimeout,
		NumConns:                 c.PoolSizePerHost,
		Keepalive:                c.Keepalive,
		TCPNoDelay:               c.TCPNoDelay,
		WriteCoalesceWaitTime:    c.WriteCoalesceWait,
		DisableShardAwarePort:    c.DisableShardAwarePort,
		DisableInitialHostLookup: c.DisableInitialHostLookup,
		ProtoVersion:             c.ProtocolVersion,
		Compression:              c.Compression,
		PageSize:                 c.PageSize,
		Metrics:                  m,
	}
}
