/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package patcher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	cfg "stash.kopano.io/kwm/sdpguard/config"
	api "stash.kopano.io/kwm/sdpguard/guard/api-v0"
	"stash.kopano.io/kwm/sdpguard/internal/sdpinfo"
	"stash.kopano.io/kwm/sdpguard/internal/sdppatch"
)

const defaultMaxMessageSize = 1048576

// Manager serves the patch API.
type Manager struct {
	logger logrus.FieldLogger
	ctx    context.Context
	config *cfg.Config

	patcher        *sdppatch.Patcher
	maxMessageSize int64

	active uint64
}

func NewManager(ctx context.Context, config *cfg.Config) (*Manager, error) {
	m := &Manager{
		logger: config.Logger.WithField("manager", "patcher"),
		ctx:    ctx,
		config: config,

		maxMessageSize: config.WebsocketMaxMessageSize,
	}
	if m.maxMessageSize <= 0 {
		m.maxMessageSize = defaultMaxMessageSize
	}

	var metrics *sdppatch.Metrics
	if config.Metrics != nil {
		var err error
		metrics, err = sdppatch.NewMetrics(config.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to register patch metrics: %w", err)
		}
	}

	m.patcher = sdppatch.New(&sdppatch.Config{
		Logger:           m.logger,
		Metrics:          metrics,
		HeaderExtensions: config.HeaderExtensions,
	})
	m.logger.WithField("header_extensions", config.HeaderExtensions).Debugln("patcher ready")

	return m, nil
}

// Patch applies the patch engine to the request. Returned errors are always
// of type *api.ErrorWithCodeAndMessage.
func (m *Manager) Patch(req *PatchRequest) (*PatchResponse, error) {
	switch req.Type {
	case webrtc.SDPTypeOffer, webrtc.SDPTypeAnswer, webrtc.SDPTypePranswer:
	default:
		return nil, api.NewErrorWithCodeAndMessage(
			api.ErrorCodeBadRequest,
			fmt.Sprintf("The session description type %q cannot be patched", req.Type),
			api.ErrBadRequest,
		)
	}

	patcher := m.patcher
	if req.HeaderExtensions != nil {
		patcher = patcher.WithHeaderExtensions(*req.HeaderExtensions)
	}

	mode := req.Mode()
	patched, err := patcher.Patch(mode, req.SDP)
	if err != nil {
		if errors.Is(err, sdppatch.ErrInvalidSDP) {
			return nil, api.NewErrorWithCodeAndMessage(
				api.ErrorCodeInvalidSDP,
				err.Error(),
				fmt.Errorf("%w: %w", api.ErrUnprocessable, err),
			)
		}
		return nil, api.NewErrorWithCodeAndMessage(api.ErrorCodeUnspecifiedError, err.Error(), err)
	}

	summary, err := sdpinfo.Inspect(patched)
	if err != nil {
		// Summary is informational, the patched result stands without it.
		m.logger.WithError(err).Debugln("failed to inspect patched sdp")
	}

	return &PatchResponse{
		Transaction: req.Transaction,

		Type:    req.Type,
		SDP:     patched,
		Mode:    mode.String(),
		Summary: summary,
	}, nil
}

// NumActive returns the number of connected patch websockets.
func (m *Manager) NumActive() uint64 {
	return atomic.LoadUint64(&m.active)
}
