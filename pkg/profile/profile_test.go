// Copyright (C) 2025 ScyllaDB

package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/scylladb/scyllaquery/pkg/pointer"
)

func TestWithReturnsCopy(t *testing.T) {
	t.Parallel()

	base := New().WithConsistency(One).WithTimeout(time.Second)
	derived := base.WithConsistency(Quorum)
	other := base.WithTimeout(time.Minute)

	if got := *base.Settings().Consistency; got != One {
		t.Errorf("base consistency changed to %s", got)
	}
	if got := *derived.Settings().Consistency; got != Quorum {
		t.Errorf("expected QUORUM, got %s", got)
	}
	if got := *derived.Settings().Timeout; got != time.Second {
		t.Errorf("expected copied timeout, got %s", got)
	}
	if got := *base.Settings().Timeout; got != time.Second {
		t.Errorf("base timeout changed to %s", got)
	}
	if got := *other.Settings().Timeout; got != time.Minute {
		t.Errorf("expected 1m, got %s", got)
	}
}

func TestSettingsAreNotAliased(t *testing.T) {
	t.Parallel()

	p := New().WithConsistency(One)
	s := p.Settings()
	*s.Consistency = All

	if got := *p.Settings().Consistency; got != One {
		t.Errorf("profile changed through returned settings: %s", got)
	}
}

func TestNilProfile(t *testing.T) {
	t.Parallel()

	var p *ExecutionProfile
	if !p.Settings().IsZero() {
		t.Error("expected empty settings")
	}
	if p.LoadBalancingPolicy() != nil {
		t.Error("expected no policy")
	}
	if got := *p.WithTracing(true).Settings().Tracing; !got {
		t.Error("expected tracing")
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	lbStmt, err := NewLoadBalancingPolicy(context.Background(), LoadBalancingOptions{PreferDatacenter: "dc1"})
	if err != nil {
		t.Fatal(err)
	}
	lbSession, err := NewLoadBalancingPolicy(context.Background(), LoadBalancingOptions{})
	if err != nil {
		t.Fatal(err)
	}

	stmtProfile := New().WithConsistency(Quorum).WithTimeout(5 * time.Second).WithLoadBalancingPolicy(lbStmt)
	sessionProfile := New().WithConsistency(One).WithSerialConsistency(Serial).WithIdempotent(true).WithLoadBalancingPolicy(lbSession)

	tt := []struct {
		name     string
		override Settings
		profiles []*ExecutionProfile
		expected Effective
	}{
		{
			name: "protocol defaults",
			expected: Effective{
				Consistency:       LocalQuorum,
				SerialConsistency: LocalSerial,
				Timeout:           30 * time.Second,
			},
		},
		{
			name:     "session profile",
			profiles: []*ExecutionProfile{nil, sessionProfile},
			expected: Effective{
				Consistency:       One,
				SerialConsistency: Serial,
				Timeout:           30 * time.Second,
				Idempotent:        true,
				LoadBalancing:     lbSession,
			},
		},
		{
			name:     "statement profile over session profile",
			profiles: []*ExecutionProfile{stmtProfile, sessionProfile},
			expected: Effective{
				Consistency:       Quorum,
				SerialConsistency: Serial,
				Timeout:           5 * time.Second,
				Idempotent:        true,
				LoadBalancing:     lbStmt,
			},
		},
		{
			name: "override over everything",
			override: Settings{
				Consistency: pointer.Ptr(All),
				Timestamp:   pointer.Ptr(int64(42)),
				Idempotent:  pointer.Ptr(false),
				Tracing:     pointer.Ptr(true),
			},
			profiles: []*ExecutionProfile{stmtProfile, sessionProfile},
			expected: Effective{
				Consistency:       All,
				SerialConsistency: Serial,
				Timeout:           5 * time.Second,
				Timestamp:         42,
				HasTimestamp:      true,
				Tracing:           true,
				LoadBalancing:     lbStmt,
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Resolve(tc.override, tc.profiles...)
			if diff := cmp.Diff(tc.expected, got, cmp.Comparer(func(a, b *LoadBalancingPolicy) bool { return a == b })); diff != "" {
				t.Errorf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigBuild(t *testing.T) {
	t.Parallel()

	c := DefaultConfig()
	c.Consistency = One
	c.Tracing = true
	c.LoadBalancing = &LoadBalancingOptions{PreferDatacenter: "dc1", PreferRack: "r1"}

	p, err := c.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	e := Resolve(Settings{}, p)
	if e.Consistency != One || !e.Tracing || e.Timeout != DefaultTimeout {
		t.Errorf("unexpected effective settings %+v", e)
	}
	if e.LoadBalancing == nil || e.LoadBalancing.Options().PreferRack != "r1" {
		t.Errorf("expected load balancing policy, got %v", e.LoadBalancing)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	c := DefaultConfig()
	c.Consistency = Consistency(0x42)
	c.SerialConsistency = 0
	c.RequestTimeout = -time.Second
	c.LoadBalancing = &LoadBalancingOptions{PreferRack: "r1"}

	err := c.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, s := range []string{"consistency", "serial consistency", "timeout", "rack"} {
		if !contains(err.Error(), s) {
			t.Errorf("expected %q in %q", s, err)
		}
	}
	if _, err := c.Build(context.Background()); err == nil {
		t.Error("expected build error")
	}
}
