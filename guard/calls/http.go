/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package calls

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	api "stash.kopano.io/kwm/sdpguard/guard/api-v0"
	"stash.kopano.io/kwm/sdpguard/internal/callstats"
	"stash.kopano.io/kwm/sdpguard/internal/quality"
)

const maxRequestSize = 1048576

func (m *Manager) HTTPCallsHandler(rw http.ResponseWriter, req *http.Request) {
	callID, _ := api.GetRequestVar(req, "callID")

	var resource interface{}
	if callID == "" {
		records := m.Records()
		calls := make([]*CallResource, 0, len(records))
		for _, record := range records {
			record.RLock()
			calls = append(calls, NewCallResource(record))
			record.RUnlock()
		}

		resource = api.NewCollectionResource(calls, req, nil)
	} else {
		record := m.getCallRecordOrWriteError(callID, rw)
		if record == nil {
			return
		}
		record.RLock()
		resource = api.NewItemResource(NewCallResource(record), req)
		record.RUnlock()
	}

	m.writeResource(rw, resource)
}

func (m *Manager) HTTPCreateCallHandler(rw http.ResponseWriter, req *http.Request) {
	createRequest := &CreateCallRequest{}
	if err := json.NewDecoder(http.MaxBytesReader(rw, req.Body, maxRequestSize)).Decode(createRequest); err != nil && !errors.Is(err, io.EOF) {
		m.writeBadRequest(rw, fmt.Sprintf("Failed to decode request: %v", err), err)
		return
	}

	var local, remote *quality.Params
	for _, side := range []struct {
		request *ProfileRequest
		params  **quality.Params
	}{
		{createRequest.Local, &local},
		{createRequest.Remote, &remote},
	} {
		if side.request == nil {
			continue
		}
		params, err := side.request.params()
		if err != nil {
			m.writeBadRequest(rw, err.Error(), err)
			return
		}
		*side.params = &params
	}

	record := m.Create(local, remote)

	record.RLock()
	resource := api.NewItemResource(NewCallResource(record), req)
	record.RUnlock()

	if writeErr := api.WriteResourceAsJSONWithStatus(rw, http.StatusCreated, resource); writeErr != nil {
		m.logger.WithError(writeErr).Errorln("failed to write json response")
	}
}

func (m *Manager) HTTPDeleteCallHandler(rw http.ResponseWriter, req *http.Request) {
	callID, _ := api.GetRequestVar(req, "callID")

	if !m.Remove(callID) {
		m.writeCallNotFound(rw)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func (m *Manager) HTTPCallProfileHandler(rw http.ResponseWriter, req *http.Request) {
	callID, _ := api.GetRequestVar(req, "callID")
	side, _ := api.GetRequestVar(req, "side")

	profileRequest := &ProfileRequest{}
	if err := json.NewDecoder(http.MaxBytesReader(rw, req.Body, maxRequestSize)).Decode(profileRequest); err != nil {
		m.writeBadRequest(rw, fmt.Sprintf("Failed to decode request: %v", err), err)
		return
	}
	params, err := profileRequest.params()
	if err != nil {
		m.writeBadRequest(rw, err.Error(), err)
		return
	}

	call, err := m.SetProfile(callID, Side(side), params)
	if err != nil {
		m.writeCallNotFound(rw)
		return
	}

	m.writeResource(rw, api.NewItemResource(call, req))
}

func (m *Manager) HTTPCallStatsHandler(rw http.ResponseWriter, req *http.Request) {
	callID, _ := api.GetRequestVar(req, "callID")

	if _, found := m.Get(callID); !found {
		m.writeCallNotFound(rw)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(rw, req.Body, maxRequestSize))
	if err != nil {
		m.writeBadRequest(rw, fmt.Sprintf("Failed to read request: %v", err), err)
		return
	}
	report, err := callstats.ParseReport(body)
	if err != nil {
		m.writeBadRequest(rw, err.Error(), err)
		return
	}

	call, err := m.UpdateStats(callID, report)
	if err != nil {
		m.writeCallNotFound(rw)
		return
	}

	m.writeResource(rw, api.NewItemResource(call, req))
}

func (m *Manager) getCallRecordOrWriteError(callID string, rw http.ResponseWriter) *CallRecord {
	record, found := m.Get(callID)
	if !found {
		m.writeCallNotFound(rw)
		return nil
	}
	return record
}

func (m *Manager) writeResource(rw http.ResponseWriter, resource interface{}) {
	if writeErr := api.WriteResourceAsJSON(rw, resource); writeErr != nil {
		m.logger.WithError(writeErr).Errorln("failed to write json response")
	}
}

func (m *Manager) writeCallNotFound(rw http.ResponseWriter) {
	if writeErr := api.WriteErrorAsJSON(rw, api.NewErrorWithCodeAndMessage(
		"ErrorMessageCallNotFound",
		"The specified call was not found",
		fmt.Errorf("%w: %w", api.ErrNotFound, ErrCallNotFound),
	)); writeErr != nil {
		m.logger.WithError(writeErr).Errorln("failed to write json error")
	}
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
