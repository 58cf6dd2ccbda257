/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package calls

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/orcaman/concurrent-map"
	"github.com/pion/webrtc/v4"
	"github.com/rogpeppe/fastuuid"
	"github.com/sirupsen/logrus"

	cfg "stash.kopano.io/kwm/sdpguard/config"
	"stash.kopano.io/kwm/sdpguard/internal/callstats"
	"stash.kopano.io/kwm/sdpguard/internal/quality"
)

// ErrCallNotFound is returned for unknown call IDs.
var ErrCallNotFound = errors.New("call not found")

const maxPurgeInterval = time.Minute

var guidGenerator = fastuuid.MustNewGenerator()

// Manager keeps the negotiation records of calls.
type Manager struct {
	logger logrus.FieldLogger
	ctx    context.Context
	config *cfg.Config

	wg    sync.WaitGroup
	calls cmap.ConcurrentMap

	extractor   *callstats.Extractor
	idleTimeout time.Duration

	now func() time.Time
}

// NewManager creates a Manager. Idle records are purged in the background
// until the provided context is done, if the configured idle timeout is
// positive.
func NewManager(ctx context.Context, config *cfg.Config) (*Manager, error) {
	m := &Manager{
		logger: config.Logger.WithField("manager", "calls"),
		ctx:    ctx,
		config: config,

		calls: cmap.New(),

		extractor:   callstats.NewExtractor(callstats.AllOptions),
		idleTimeout: config.CallIdleTimeout,

		now: time.Now,
	}

	if m.idleTimeout > 0 {
		interval := m.idleTimeout / 2
		if interval > maxPurgeInterval {
			interval = maxPurgeInterval
		}
		m.wg.Add(1)
		go func() {
			defer func() {
				m.logger.Debugln("calls purger stopped")
				m.wg.Done()
			}()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					m.purge()
				}
			}
		}()
	}

	return m, nil
}

// Create adds a new call record.
func (m *Manager) Create(local, remote *quality.Params) *CallRecord {
	now := m.now()
	record := NewCallRecord(guidGenerator.Hex128(), now)

	record.Lock()
	if local != nil {
		record.setProfile(SideLocal, *local, now)
	}
	if remote != nil {
		record.setProfile(SideRemote, *remote, now)
	}
	record.Unlock()

	m.calls.Set(record.id, record)
	m.logger.WithField("call", record.id).Debugln("call created")

	return record
}

func (m *Manager) Get(id string) (*CallRecord, bool) {
	record, found := m.calls.Get(id)
	if !found {
		return nil, false
	}
	return record.(*CallRecord), true
}

// Remove removes the call record with the provided ID.
func (m *Manager) Remove(id string) bool {
	_, exists := m.calls.Pop(id)
	if exists {
		m.logger.WithField("call", id).Debugln("call removed")
	}
	return exists
}

// Records returns all call records.
func (m *Manager) Records() []*CallRecord {
	records := make([]*CallRecord, 0, m.calls.Count())
	m.calls.IterCb(func(key string, v interface{}) {
		records = append(records, v.(*CallRecord))
	})
	return records
}

// SetProfile sets the profile of one side of a call and recomputes the
// common profile.
func (m *Manager) SetProfile(id string, side Side, params quality.Params) (*CallResource, error) {
	record, found := m.Get(id)
	if !found {
		return nil, ErrCallNotFound
	}

	record.Lock()
	defer record.Unlock()

	record.setProfile(side, params, m.now())
	m.logger.WithFields(logrus.Fields{
		"call":   id,
		"side":   side,
		"params": params,
		"common": record.common,
	}).Debugln("call profile updated")

	return NewCallResource(record), nil
}

// UpdateStats extracts the provided stats report, compared to the previous
// report of the call. A change of the relay state recomputes the common
// profile.
func (m *Manager) UpdateStats(id string, report webrtc.StatsReport) (*CallResource, error) {
	record, found := m.Get(id)
	if !found {
		return nil, ErrCallNotFound
	}

	record.Lock()
	defer record.Unlock()

	snapshot := m.extractor.ComparedTo(record.state).Extract(report)
	relayed := record.relayed
	record.updateStats(snapshot, m.now())
	if relayed != record.relayed {
		m.logger.WithFields(logrus.Fields{
			"call":    id,
			"relayed": record.relayed,
			"common":  record.common,
		}).Infoln("call relay state changed")
	}

	return NewCallResource(record), nil
}

func (m *Manager) purge() int {
	now := m.now()

	var expired []string
	m.calls.IterCb(func(key string, v interface{}) {
		if v.(*CallRecord).idleSince(now) > m.idleTimeout {
			expired = append(expired, key)
		}
	})
	for _, id := range expired {
		m.calls.Pop(id)
	}
	if len(expired) > 0 {
		m.logger.WithField("count", len(expired)).Debugln("purged idle calls")
	}

	return len(expired)
}

func (m *Manager) Wait() {
	m.wg.Wait()
}

// NumActive returns the number of known calls.
func (m *Manager) NumActive() uint64 {
	return uint64(m.calls.Count())
}
