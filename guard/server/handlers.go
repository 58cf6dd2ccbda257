/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package server

import (
	"net/http"

	api "stash.kopano.io/kwm/sdpguard/guard/api-v0"
	"stash.kopano.io/kwm/sdpguard/version"
)

type healthCheckResource struct {
	Version string `json:"version"`
	Active  uint64 `json:"active"`
}

// HealthCheckHandler a http handler return 200 OK when server health is fine.
func (s *Server) HealthCheckHandler(rw http.ResponseWriter, req *http.Request) {
	resource := &healthCheckResource{
		Version: version.Version,
	}
	for _, service := range s.services.Services() {
		resource.Active += service.NumActive()
	}

	if writeErr := api.WriteResourceAsJSON(rw, resource); writeErr != nil {
		s.logger.WithError(writeErr).Errorln("failed to write json response")
	}
}
