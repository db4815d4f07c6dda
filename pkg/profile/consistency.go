// Copyright (C) 2025 ScyllaDB

package profile

import (
	"fmt"
	"strings"

	"github.com/scylladb/scyllaquery/pkg/cqlerrors"
)

// Consistency is the number of replicas that must acknowledge a request.
// Values are the protocol codes.
type Consistency uint16

const (
	Any         Consistency = 0x00
	One         Consistency = 0x01
	Two         Consistency = 0x02
	Three       Consistency = 0x03
	Quorum      Consistency = 0x04
	All         Consistency = 0x05
	LocalQuorum Consistency = 0x06
	EachQuorum  Consistency = 0x07
	LocalOne    Consistency = 0x0A
)

var consistencyNames = map[Consistency]string{
	Any:         "ANY",
	One:         "ONE",
	Two:         "TWO",
	Three:       "THREE",
	Quorum:      "QUORUM",
	All:         "ALL",
	LocalQuorum: "LOCAL_QUORUM",
	EachQuorum:  "EACH_QUORUM",
	LocalOne:    "LOCAL_ONE",
}

func (c Consistency) String() string {
	if s, ok := consistencyNames[c]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN_CONSISTENCY_0x%x", uint16(c))
}

// ParseConsistency parses a consistency name, case-insensitively.
func ParseConsistency(s string) (Consistency, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for c, name := range consistencyNames {
		if name == u {
			return c, nil
		}
	}
	return 0, cqlerrors.Usagef("unknown consistency %q", s)
}

func (c Consistency) MarshalText() ([]byte, error) {
	if _, ok := consistencyNames[c]; !ok {
		return nil, cqlerrors.Usagef("unknown consistency 0x%x", uint16(c))
	}
	return []byte(c.String()), nil
}

func (c *Consistency) UnmarshalText(text []byte) error {
	v, err := ParseConsistency(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// SerialConsistency is the consistency of the Paxos phase of conditional
// writes.
type SerialConsistency uint16

const (
	Serial      SerialConsistency = 0x08
	LocalSerial SerialConsistency = 0x09
)

func (c SerialConsistency) String() string {
	switch c {
	case Serial:
		return "SERIAL"
	case LocalSerial:
		return "LOCAL_SERIAL"
	default:
		return fmt.Sprintf("UNKNOWN_SERIAL_CONSISTENCY_0x%x", uint16(c))
	}
}

// ParseSerialConsistency parses a serial consistency name, case-insensitively.
func ParseSerialConsistency(s string) (SerialConsistency, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SERIAL":
		return Serial, nil
	case "LOCAL_SERIAL":
		return LocalSerial, nil
	default:
		return 0, cqlerrors.Usagef("unknown serial consistency %q", s)
	}
}

func (c SerialConsistency) MarshalText() ([]byte, error) {
	if c != Serial && c != LocalSerial {
		return nil, cqlerrors.Usagef("unknown serial consistency 0x%x", uint16(c))
	}
	return []byte(c.String()), nil
}

func (c *SerialConsistency) UnmarshalText(text []byte) error {
	v, err := ParseSerialConsistency(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
