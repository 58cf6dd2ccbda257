/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package service

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"

	"stash.kopano.io/kwm/sdpguard/guard"
	"stash.kopano.io/kwm/sdpguard/guard/calls"
	"stash.kopano.io/kwm/sdpguard/guard/odata"
	"stash.kopano.io/kwm/sdpguard/guard/patcher"
)

const (
	URIPrefix = "/api/sdpguard/v0"
)

// HTTPService binds the HTTP router with handlers for the sdpguard API v0.
type HTTPService struct {
	logger   logrus.FieldLogger
	services *guard.Services
}

// NewHTTPService creates a new HTTPService with the provided options.
func NewHTTPService(ctx context.Context, logger logrus.FieldLogger, services *guard.Services) *HTTPService {
	return &HTTPService{
		logger:   logger,
		services: services,
	}
}

// AddRoutes configures the services HTTP end point routing on the provided
// context and router.
func (h *HTTPService) AddRoutes(ctx context.Context, router *mux.Router, chain alice.Chain) http.Handler {
	v0 := router.PathPrefix(URIPrefix).Subrouter()
	chain = chain.Append(odata.WithOData)

	if pm, ok := h.services.Patcher.(*patcher.Manager); ok {
		// /api/sdpguard/v0/patch
		// /api/sdpguard/v0/patch/websocket
		// /api/sdpguard/v0/candidates
		v0.Handle("/patch", chain.ThenFunc(pm.HTTPPatchHandler)).Methods(http.MethodPost)
		// Websocket needs the plain ResponseWriter to hijack the connection.
		v0.Handle("/patch/websocket", http.HandlerFunc(pm.HTTPWebsocketHandler)).Methods(http.MethodGet)
		v0.Handle("/candidates", chain.ThenFunc(pm.HTTPCandidatesHandler)).Methods(http.MethodPost)
	}

	if cm, ok := h.services.Calls.(*calls.Manager); ok {
		// /api/sdpguard/v0/calls
		// /api/sdpguard/v0/calls/:call
		// /api/sdpguard/v0/calls/:call/profiles/:side
		// /api/sdpguard/v0/calls/:call/stats
		v0.Handle("/calls", chain.ThenFunc(cm.HTTPCallsHandler)).Methods(http.MethodGet)
		v0.Handle("/calls", chain.ThenFunc(cm.HTTPCreateCallHandler)).Methods(http.MethodPost)
		v0.Handle("/calls/{callID}", chain.ThenFunc(cm.HTTPCallsHandler)).Methods(http.MethodGet)
		v0.Handle("/calls/{callID}", chain.ThenFunc(cm.HTTPDeleteCallHandler)).Methods(http.MethodDelete)
		v0.Handle("/calls/{callID}/profiles/{side:local|remote}", chain.ThenFunc(cm.HTTPCallProfileHandler)).Methods(http.MethodPut)
		v0.Handle("/calls/{callID}/stats", chain.ThenFunc(cm.HTTPCallStatsHandler)).Methods(http.MethodPost)
	}

	return router
}

// NumActive returns the number of the currently active connections at the
// associated HTTPService.
func (h *HTTPService) NumActive() (active uint64) {
	for _, service := range h.services.Services() {
		active += service.NumActive()
	}

	return active
}
