/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package calls

import (
	"time"

	"github.com/sasha-s/go-deadlock"

	"stash.kopano.io/kwm/sdpguard/internal/callstats"
	"stash.kopano.io/kwm/sdpguard/internal/quality"
)

// Side selects one peer of a call.
type Side string

const (
	SideLocal  Side = "local"
	SideRemote Side = "remote"
)

// CallRecord holds the video quality negotiation state of a call.
type CallRecord struct {
	deadlock.RWMutex

	id      string
	created time.Time
	updated time.Time

	local  *quality.Params
	remote *quality.Params

	relayed bool
	common  *quality.Params

	state    *callstats.State
	snapshot *callstats.Snapshot
}

func NewCallRecord(id string, now time.Time) *CallRecord {
	return &CallRecord{
		id:      id,
		created: now,
		updated: now,
	}
}

func (record *CallRecord) ID() string {
	return record.id
}

// setProfile must be called with the record locked.
func (record *CallRecord) setProfile(side Side, params quality.Params, now time.Time) {
	switch side {
	case SideLocal:
		record.local = &params
	case SideRemote:
		record.remote = &params
	}
	record.updated = now
	record.recompute()
}

// updateStats must be called with the record locked.
func (record *CallRecord) updateStats(snapshot *callstats.Snapshot, now time.Time) {
	record.snapshot = snapshot
	record.state = snapshot.State()
	record.relayed = snapshot.UsesRelay()
	record.updated = now
	record.recompute()
}

func (record *CallRecord) recompute() {
	var common quality.Params
	switch {
	case record.local != nil:
		common = record.local.Common(record.remote, record.relayed)
	case record.remote != nil:
		common = record.remote.Common(nil, record.relayed)
	default:
		record.common = nil
		return
	}
	record.common = &common
}

func (record *CallRecord) idleSince(now time.Time) time.Duration {
	record.RLock()
	defer record.RUnlock()

	return now.Sub(record.updated)
}
