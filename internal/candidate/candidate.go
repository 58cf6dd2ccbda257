/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

// Package candidate parses ICE candidate attributes found in session
// descriptions and trickle messages.
package candidate

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/pion/ice/v4"
)

// ErrEmptyCandidate is returned when a candidate line has no value, which
// signals the end of candidates.
var ErrEmptyCandidate = errors.New("empty candidate")

const (
	attributePrefix = "a="
	candidatePrefix = "candidate:"
)

// Candidate is a parsed ICE candidate.
type Candidate struct {
	Foundation string `json:"foundation"`
	Component  uint16 `json:"component"`
	Protocol   string `json:"protocol"`
	Priority   uint32 `json:"priority"`
	Address    string `json:"address"`
	Port       int    `json:"port"`
	Type       string `json:"type"`

	RelatedAddress string `json:"relatedAddress,omitempty"`
	RelatedPort    int    `json:"relatedPort,omitempty"`
	TCPType        string `json:"tcpType,omitempty"`
}

// Parse parses the provided candidate. Accepted are full attribute lines
// (a=candidate:...), candidate values with the candidate: prefix and bare
// values.
func Parse(line string) (*Candidate, error) {
	value := strings.TrimSpace(line)
	value = strings.TrimPrefix(value, attributePrefix)
	value = strings.TrimPrefix(value, candidatePrefix)
	if value == "" {
		return nil, ErrEmptyCandidate
	}

	parsed, err := ice.UnmarshalCandidate(value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse candidate: %w", err)
	}

	c := &Candidate{
		Foundation: parsed.Foundation(),
		Component:  parsed.Component(),
		Protocol:   parsed.NetworkType().NetworkShort(),
		Priority:   parsed.Priority(),
		Address:    parsed.Address(),
		Port:       parsed.Port(),
		Type:       parsed.Type().String(),
	}
	if related := parsed.RelatedAddress(); related != nil {
		c.RelatedAddress = related.Address
		c.RelatedPort = related.Port
	}
	if parsed.TCPType() != ice.TCPTypeUnspecified {
		c.TCPType = parsed.TCPType().String()
	}

	return c, nil
}

// ParseAll parses all candidate attributes of the provided session
// description, in order. Lines which are not candidates are ignored.
func ParseAll(sdp string) ([]*Candidate, error) {
	candidates := make([]*Candidate, 0)
	for _, line := range strings.FieldsFunc(sdp, func(r rune) bool {
		return r == '\r' || r == '\n'
	}) {
		if !strings.HasPrefix(line, attributePrefix+candidatePrefix) {
			continue
		}
		c, err := Parse(line)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// IsRelay returns true if the candidate is a TURN relay candidate.
func (c *Candidate) IsRelay() bool {
	return c.Type == ice.CandidateTypeRelay.String()
}

// IsLoopback returns true if the candidate address is a loopback address.
func (c *Candidate) IsLoopback() bool {
	ip := net.ParseIP(c.Address)
	return ip != nil && ip.IsLoopback()
}

// IsIPv6 returns true if the candidate address is an IPv6 address. Host
// names (for example mDNS) are neither IPv4 nor IPv6.
func (c *Candidate) IsIPv6() bool {
	ip := net.ParseIP(c.Address)
	return ip != nil && ip.To4() == nil
}

func (c *Candidate) String() string {
	return fmt.Sprintf("%s %s %s:%d", c.Type, c.Protocol, c.Address, c.Port)
}
