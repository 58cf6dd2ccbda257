/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package calls

import (
	"time"

	"stash.kopano.io/kwm/sdpguard/internal/callstats"
	"stash.kopano.io/kwm/sdpguard/internal/quality"
)

type CallResource struct {
	ID string `json:"id"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`

	Local  *quality.Params `json:"local,omitempty"`
	Remote *quality.Params `json:"remote,omitempty"`

	Relayed bool            `json:"relayed"`
	Common  *quality.Params `json:"common,omitempty"`

	Stats *callstats.Snapshot `json:"stats,omitempty"`
}

// NewCallResource must be called with the record read locked.
func NewCallResource(record *CallRecord) *CallResource {
	return &CallResource{
		ID: record.id,

		Created: record.created,
		Updated: record.updated,

		Local:  copyParams(record.local),
		Remote: copyParams(record.remote),

		Relayed: record.relayed,
		Common:  copyParams(record.common),

		Stats: record.snapshot,
	}
}

func copyParams(params *quality.Params) *quality.Params {
	if params == nil {
		return nil
	}
	p := *params
	return &p
}

// CreateCallRequest optionally sets the profiles of a new call.
type CreateCallRequest struct {
	Local  *ProfileRequest `json:"local,omitempty"`
	Remote *ProfileRequest `json:"remote,omitempty"`
}

// ProfileRequest selects video params. A named profile without values uses
// the profile definition, Metered forces the low profile.
type ProfileRequest struct {
	quality.Params

	Metered bool `json:"metered,omitempty"`
}

func (r *ProfileRequest) params() (quality.Params, error) {
	if r.Metered {
		return quality.FromSetting(r.Profile, true), nil
	}
	params := r.Params
	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}
