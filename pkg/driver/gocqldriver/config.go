// Copyright (C) 2025 ScyllaDB

package gocqldriver

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"
	"time"

	"github.com/gocql/gocql"
	"github.com/hailocab/go-hostpool"
	"github.com/pkg/errors"
	"github.com/scylladb/scyllaquery/pkg/profile"
)

// TLSConfig specifies client TLS material.
type TLSConfig struct {
	// CAFile is a PEM file with certificates of the authorities to trust.
	CAFile string `json:"caFile,omitempty" yaml:"ca_file"`
	// CAPEM holds PEM certificates, it is used when CAFile is empty.
	CAPEM string `json:"-" yaml:"ca_pem"`
	// CertFile and KeyFile hold the client certificate and key.
	CertFile           string `json:"certFile,omitempty" yaml:"cert_file"`
	KeyFile            string `json:"keyFile,omitempty" yaml:"key_file"`
	ServerName         string `json:"serverName,omitempty" yaml:"server_name"`
	InsecureSkipVerify bool   `json:"insecureSkipVerify,omitempty" yaml:"insecure_skip_verify"`
}

// Config specifies how cores connect to the cluster.
type Config struct {
	Hosts    []string
	Username string
	Password string
	TLS      *TLSConfig
	Keyspace string
	// ConnectTimeout bounds opening a connection, Timeout bounds a request
	// on the wire.
	ConnectTimeout        time.Duration
	Timeout               time.Duration
	NumConns              int
	Keepalive             time.Duration
	TCPNoDelay            bool
	WriteCoalesceWaitTime time.Duration
	// DisableShardAwarePort makes the driver connect to the regular port
	// only, for clusters behind NAT.
	DisableShardAwarePort    bool
	DisableInitialHostLookup bool
	// ProtoVersion of zero lets the driver negotiate.
	ProtoVersion int
	Compression  bool
	// PageSize is the default number of rows per page.
	PageSize int
	Metrics  *Metrics
	// LoadBalancing is the policy of the default session, nil for token
	// aware round robin.
	LoadBalancing *profile.LoadBalancingPolicy
}

const defaultPageSize = 5000

func (c Config) clusterConfig(keyspace string, lb *profile.LoadBalancingPolicy) (*gocql.ClusterConfig, error) {
	cluster := gocql.NewCluster(c.Hosts...)
	cluster.Keyspace = keyspace
	if c.ConnectTimeout > 0 {
		cluster.ConnectTimeout = c.ConnectTimeout
	}
	if c.Timeout > 0 {
		cluster.Timeout = c.Timeout
	}
	if c.NumConns > 0 {
		cluster.NumConns = c.NumConns
	}
	cluster.SocketKeepalive = c.Keepalive
	cluster.WriteCoalesceWaitTime = c.WriteCoalesceWaitTime
	cluster.DisableShardAwarePort = c.DisableShardAwarePort
	cluster.DisableInitialHostLookup = c.DisableInitialHostLookup
	if c.ProtoVersion > 0 {
		cluster.ProtoVersion = c.ProtoVersion
	}
	if c.Compression {
		cluster.Compressor = gocql.SnappyCompressor{}
	}
	// Go enables TCP_NODELAY by default. A custom dialer replaces the
	// driver's shard-aware one, so it is only installed to turn it off.
	if !c.TCPNoDelay {
		cluster.Dialer = &noDelayDialer{
			Dialer:  net.Dialer{Timeout: cluster.ConnectTimeout, KeepAlive: c.Keepalive},
			noDelay: false,
		}
	}
	if c.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: c.Username,
			Password: c.Password,
		}
	}
	if c.TLS != nil {
		tlsConfig, err := c.TLS.tlsConfig()
		if err != nil {
			return nil, errors.Wrap(err, "tls config")
		}
		cluster.SslOpts = &gocql.SslOptions{
			Config:                 tlsConfig,
			EnableHostVerification: !c.TLS.InsecureSkipVerify,
		}
	}
	if c.Metrics != nil {
		cluster.QueryObserver = c.Metrics
		cluster.BatchObserver = c.Metrics
	}

	cluster.PoolConfig.HostSelectionPolicy = hostSelectionPolicy(lb)
	if lb != nil {
		opts := lb.Options()
		if opts.PreferDatacenter != "" && !opts.PermitDCFailover {
			cluster.HostFilter = gocql.DataCentreHostFilter(opts.PreferDatacenter)
		}
	}

	return cluster, nil
}

func (c *TLSConfig) tlsConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}

	caPEM := []byte(c.CAPEM)
	if c.CAFile != "" {
		b, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, errors.Wrap(err, "read CA file")
		}
		caPEM = b
	}
	if len(caPEM) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, errors.New("no CA certificates found")
		}
		tlsConfig.RootCAs = pool
	}

	if c.CertFile != "" || c.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "load client certificate")
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

type hostSelection int

const (
	selectRoundRobin hostSelection = iota
	selectDatacenter
	selectRack
	selectLatency
)

// hostSelectionFor picks how hosts are chosen before token awareness is
// applied. Latency awareness runs on the hosts left by the datacenter
// filter.
func hostSelectionFor(opts profile.LoadBalancingOptions) hostSelection {
	switch {
	case opts.LatencyAwareness != nil:
		return selectLatency
	case opts.PreferRack != "":
		return selectRack
	case opts.PreferDatacenter != "":
		return selectDatacenter
	default:
		return selectRoundRobin
	}
}

// hostSelectionPolicy returns a new policy for every call, driver
// sessions can not share policies.
func hostSelectionPolicy(lb *profile.LoadBalancingPolicy) gocql.HostSelectionPolicy {
	if lb == nil {
		return gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	}

	opts := lb.Options()
	var fallback gocql.HostSelectionPolicy
	switch hostSelectionFor(opts) {
	case selectLatency:
		la := opts.LatencyAwareness
		fallback = gocql.HostPoolHostPolicy(hostpool.NewEpsilonGreedy(nil, la.DecayDuration, &hostpool.PolynomialEpsilonValueCalculator{Exp: la.Exponent}))
	case selectRack:
		fallback = gocql.RackAwareRoundRobinPolicy(opts.PreferDatacenter, opts.PreferRack)
	case selectDatacenter:
		fallback = gocql.DCAwareRoundRobinPolicy(opts.PreferDatacenter)
	default:
		fallback = gocql.RoundRobinHostPolicy()
	}

	if !lb.IsTokenAware() {
		return fallback
	}
	switch shuffle, failover := lb.ShufflesReplicas(), opts.PermitDCFailover; {
	case shuffle && failover:
		return gocql.TokenAwareHostPolicy(fallback, gocql.ShuffleReplicas(), gocql.NonLocalReplicasFallback())
	case shuffle:
		return gocql.TokenAwareHostPolicy(fallback, gocql.ShuffleReplicas())
	case failover:
		return gocql.TokenAwareHostPolicy(fallback, gocql.NonLocalReplicasFallback())
	default:
		return gocql.TokenAwareHostPolicy(fallback)
	}
}

type noDelayDialer struct {
	net.Dialer
	noDelay bool
}

func (d *noDelayDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := d.Dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetNoDelay(d.noDelay); err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "set TCP_NODELAY")
		}
	}
	return conn, nil
}
