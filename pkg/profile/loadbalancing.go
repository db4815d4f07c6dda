// Copyright (C) 2025 ScyllaDB

package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
	"github.com/scylladb/scyllaquery/pkg/pointer"
	"go.uber.org/multierr"
	"k8s.io/klog/v2"
)

// LatencyAwareness picks hosts with an epsilon greedy strategy weighted by
// their measured latency.
type LatencyAwareness struct {
	// DecayDuration is how long latency measurements are remembered.
	DecayDuration time.Duration `json:"decayDuration" yaml:"decay_duration"`
	// Exponent is applied to a host's average latency before it is weighted,
	// higher values favor fast hosts more strongly.
	Exponent float64 `json:"exponent" yaml:"exponent"`
}

// DefaultLatencyAwareness returns a LatencyAwareness initialized with
// default values.
func DefaultLatencyAwareness() LatencyAwareness {
	return LatencyAwareness{
		DecayDuration: 5 * time.Minute,
		Exponent:      2,
	}
}

// withDefaults fills zero fields from DefaultLatencyAwareness.
func (la LatencyAwareness) withDefaults() LatencyAwareness {
	def := DefaultLatencyAwareness()
	if la.DecayDuration == 0 {
		la.DecayDuration = def.DecayDuration
	}
	if la.Exponent == 0 {
		la.Exponent = def.Exponent
	}
	return la
}

// Validate checks if all the fields are properly set.
func (la LatencyAwareness) Validate() error {
	var err error
	if la.DecayDuration < 0 {
		err = multierr.Append(err, errors.New("decay duration must not be negative"))
	}
	if la.Exponent < 0 {
		err = multierr.Append(err, errors.New("exponent must not be negative"))
	}
	return err
}

// LoadBalancingOptions describes how hosts are picked for a request.
type LoadBalancingOptions struct {
	// TokenAware routes requests to replicas owning the partition.
	// Defaults to true.
	TokenAware *bool `json:"tokenAware,omitempty" yaml:"token_aware"`
	// PreferDatacenter restricts the first choice of hosts to a datacenter.
	PreferDatacenter string `json:"preferDatacenter,omitempty" yaml:"prefer_datacenter"`
	// PreferRack further restricts the first choice to a rack of
	// PreferDatacenter.
	PreferRack string `json:"preferRack,omitempty" yaml:"prefer_rack"`
	// PermitDCFailover allows hosts of other datacenters when none of the
	// preferred datacenter is available.
	PermitDCFailover bool `json:"permitDCFailover,omitempty" yaml:"permit_dc_failover"`
	// ShuffleReplicas picks replicas in random order. Defaults to true.
	ShuffleReplicas *bool `json:"shuffleReplicas,omitempty" yaml:"shuffle_replicas"`
	// LatencyAwareness, when set, deprioritizes slow hosts. Zero fields take
	// default values. It is exclusive with PreferRack and, when
	// PreferDatacenter is set, with PermitDCFailover.
	LatencyAwareness *LatencyAwareness `json:"latencyAwareness,omitempty" yaml:"latency_awareness"`
}

// Validate checks if all the fields are properly set.
func (o LoadBalancingOptions) Validate() error {
	var err error
	if o.PreferRack != "" && o.PreferDatacenter == "" {
		err = multierr.Append(err, errors.New("preferred rack requires a preferred datacenter"))
	}
	if o.LatencyAwareness != nil {
		err = multierr.Append(err, errors.Wrap(o.LatencyAwareness.Validate(), "latency awareness"))
		// Latency aware selection has no notion of locality, a preferred
		// datacenter is honored only by filtering out the other ones.
		if o.PreferRack != "" {
			err = multierr.Append(err, errors.New("latency awareness can not be combined with a preferred rack"))
		}
		if o.PreferDatacenter != "" && o.PermitDCFailover {
			err = multierr.Append(err, errors.New("latency awareness can not be combined with datacenter failover"))
		}
	}
	return err
}

func (o LoadBalancingOptions) clone() LoadBalancingOptions {
	c := o
	c.TokenAware = clonePtr(o.TokenAware)
	c.ShuffleReplicas = clonePtr(o.ShuffleReplicas)
	if o.LatencyAwareness != nil {
		c.LatencyAwareness = pointer.Ptr(o.LatencyAwareness.withDefaults())
	}
	return c
}

// LoadBalancingPolicy is a validated, immutable set of LoadBalancingOptions
// bound to the context it was built in. Background measurements made on its
// behalf stop when that context is done.
type LoadBalancingPolicy struct {
	ctx  context.Context
	opts LoadBalancingOptions
}

// NewLoadBalancingPolicy builds a policy. ctx must be live, building a
// policy with a nil or finished context is a usage error.
func NewLoadBalancingPolicy(ctx context.Context, opts LoadBalancingOptions) (*LoadBalancingPolicy, error) {
	if ctx == nil {
		return nil, cqlerrors.Usagef("load balancing policy requires a running context")
	}
	if err := ctx.Err(); err != nil {
		return nil, cqlerrors.Wrap(cqlerrors.KindBase, err, "load balancing policy requires a running context")
	}
	if err := opts.Validate(); err != nil {
		return nil, cqlerrors.Wrap(cqlerrors.KindBase, err, "invalid load balancing options")
	}

	lb := &LoadBalancingPolicy{
		ctx:  ctx,
		opts: opts.clone(),
	}
	klog.V(2).InfoS("Built load balancing policy", "Policy", lb)
	return lb, nil
}

// Options returns a copy of the policy options with defaults applied.
func (lb *LoadBalancingPolicy) Options() LoadBalancingOptions {
	return lb.opts.clone()
}

// Context returns the context the policy is bound to.
func (lb *LoadBalancingPolicy) Context() context.Context {
	return lb.ctx
}

// IsTokenAware reports whether requests are routed to replicas.
func (lb *LoadBalancingPolicy) IsTokenAware() bool {
	return pointer.Deref(lb.opts.TokenAware, true)
}

// ShufflesReplicas reports whether replicas are tried in random order.
func (lb *LoadBalancingPolicy) ShufflesReplicas() bool {
	return pointer.Deref(lb.opts.ShuffleReplicas, true)
}

func (lb *LoadBalancingPolicy) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("token_aware=%t", lb.IsTokenAware()))
	if lb.opts.PreferDatacenter != "" {
		parts = append(parts, "dc="+lb.opts.PreferDatacenter)
	}
	if lb.opts.PreferRack != "" {
		parts = append(parts, "rack="+lb.opts.PreferRack)
	}
	parts = append(parts,
		fmt.Sprintf("dc_failover=%t", lb.opts.PermitDCFailover),
		fmt.Sprintf("shuffle=%t", lb.ShufflesReplicas()),
	)
	if la := lb.opts.LatencyAwareness; la != nil {
		parts = append(parts, fmt.Sprintf("latency_awareness=%+v", *la))
	}
	return "LoadBalancingPolicy{" + strings.Join(parts, " ") + "}"
}
