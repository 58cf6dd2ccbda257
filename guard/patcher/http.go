/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package patcher

import (
	"encoding/json"
	"fmt"
	"net/http"

	api "stash.kopano.io/kwm/sdpguard/guard/api-v0"
	"stash.kopano.io/kwm/sdpguard/internal/candidate"
)

func (m *Manager) HTTPPatchHandler(rw http.ResponseWriter, req *http.Request) {
	patchRequest := &PatchRequest{}
	if !m.decodeRequestOrWriteError(rw, req, patchRequest) {
		return
	}

	response, err := m.Patch(patchRequest)
	if err != nil {
		m.logger.WithError(err).Debugln("patch request failed")
		if writeErr := api.WriteErrorAsJSON(rw, err); writeErr != nil {
			m.logger.WithError(writeErr).Errorln("failed to write json error")
		}
		return
	}

	if writeErr := api.WriteResourceAsJSON(rw, response); writeErr != nil {
		m.logger.WithError(writeErr).Errorln("failed to write json response")
	}
}

func (m *Manager) HTTPCandidatesHandler(rw http.ResponseWriter, req *http.Request) {
	candidatesRequest := &CandidatesRequest{}
	if !m.decodeRequestOrWriteError(rw, req, candidatesRequest) {
		return
	}

	var parsed []*candidate.Candidate
	if candidatesRequest.SDP != "" {
		all, err := candidate.ParseAll(candidatesRequest.SDP)
		if err != nil {
			m.writeBadRequest(rw, err.Error(), err)
			return
		}
		parsed = append(parsed, all...)
	}
	for idx, line := range candidatesRequest.Candidates {
		c, err := candidate.Parse(line)
		if err != nil {
			m.writeBadRequest(rw, fmt.Sprintf("candidate %d: %v", idx, err), err)
			return
		}
		parsed = append(parsed, c)
	}

	candidates := make([]*CandidateResource, 0, len(parsed))
	for _, c := range parsed {
		candidates = append(candidates, NewCandidateResource(c))
	}

	if writeErr := api.WriteResourceAsJSON(rw, api.NewCollectionResource(candidates, req, nil)); writeErr != nil {
		m.logger.WithError(writeErr).Errorln("failed to write json response")
	}
}

func (m *Manager) decodeRequestOrWriteError(rw http.ResponseWriter, req *http.Request, v interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(rw, req.Body, m.maxMessageSize))
	if err := decoder.Decode(v); err != nil {
		m.writeBadRequest(rw, fmt.Sprintf("Failed to decode request: %v", err), err)
		return false
	}
	return true
}

func (m *Manager) writeBadRequest(rw http.ResponseWriter, message string, err error) {
	if writeErr := api.WriteErrorAsJSON(rw, api.NewErrorWithCodeAndMessage(
		api.ErrorCodeBadRequest,
		message,
		fmt.Errorf("%w: %w", api.ErrBadRequest, err),
	)); writeErr != nil {
		m.logger.WithError(writeErr).Errorln("failed to write json error")
	}
}
