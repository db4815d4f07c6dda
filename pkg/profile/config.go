// Copyright (C) 2025 ScyllaDB

package profile

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Config is the serializable form of an execution profile.
type Config struct {
	Consistency       Consistency           `json:"consistency" yaml:"consistency"`
	SerialConsistency SerialConsistency     `json:"serialConsistency" yaml:"serial_consistency"`
	RequestTimeout    time.Duration         `json:"requestTimeout" yaml:"request_timeout"`
	Idempotent        bool                  `json:"idempotent,omitempty" yaml:"idempotent"`
	Tracing           bool                  `json:"tracing,omitempty" yaml:"tracing"`
	LoadBalancing     *LoadBalancingOptions `json:"loadBalancing,omitempty" yaml:"load_balancing"`
}

// DefaultConfig returns a Config initialized with protocol defaults.
func DefaultConfig() Config {
	return Config{
		Consistency:       DefaultConsistency,
		SerialConsistency: DefaultSerialConsistency,
		RequestTimeout:    DefaultTimeout,
	}
}

// Validate checks if all the fields are properly set.
func (c Config) Validate() error {
	var err error
	if _, ok := consistencyNames[c.Consistency]; !ok {
		err = multierr.Append(err, errors.Errorf("invalid consistency 0x%x", uint16(c.Consistency)))
	}
	if c.SerialConsistency != Serial && c.SerialConsistency != LocalSerial {
		err = multierr.Append(err, errors.Errorf("invalid serial consistency 0x%x", uint16(c.SerialConsistency)))
	}
	if c.RequestTimeout < 0 {
		err = multierr.Append(err, errors.New("request timeout must not be negative"))
	}
	if c.LoadBalancing != nil {
		err = multierr.Append(err, c.LoadBalancing.Validate())
	}
	return err
}

// Build returns the profile described by c. The load balancing policy, if
// configured, lives as long as ctx.
func (c Config) Build(ctx context.Context) (*ExecutionProfile, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid profile config")
	}

	p := New().
		WithConsistency(c.Consistency).
		WithSerialConsistency(c.SerialConsistency).
		WithTimeout(c.RequestTimeout)
	if c.Idempotent {
		p = p.WithIdempotent(true)
	}
	if c.Tracing {
		p = p.WithTracing(true)
	}
	if c.LoadBalancing != nil {
		lb, err := NewLoadBalancingPolicy(ctx, *c.LoadBalancing)
		if err != nil {
			return nil, err
		}
		p = p.WithLoadBalancingPolicy(lb)
	}
	return p, nil
}
