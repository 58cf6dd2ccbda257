/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package config

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"stash.kopano.io/kwm/sdpguard/internal/sdppatch"
)

// Config defines a Server's configuration settings.
type Config struct {
	ListenAddr string

	WithMetrics       bool
	MetricsListenAddr string

	RequestLog bool

	Logger logrus.FieldLogger

	Metrics prometheus.Registerer

	HeaderExtensions sdppatch.HeaderExtensionPolicy

	WebsocketMaxMessageSize int64

	CallIdleTimeout time.Duration
}
