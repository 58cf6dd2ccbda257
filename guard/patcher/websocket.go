/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package patcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"

	api "stash.kopano.io/kwm/sdpguard/guard/api-v0"
	"stash.kopano.io/kwm/sdpguard/internal/bpool"
)

// Subprotocol is the websocket sub-protocol spoken on the patch websocket.
const Subprotocol = "sdpguard-protocol"

func (m *Manager) HTTPWebsocketHandler(rw http.ResponseWriter, req *http.Request) {
	ws, err := websocket.Accept(rw, req, &websocket.AcceptOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		m.logger.WithError(err).Debugln("failed to accept patch websocket")
		return
	}
	if ws.Subprotocol() != Subprotocol {
		ws.Close(websocket.StatusPolicyViolation, "unsupported subprotocol")
		return
	}
	ws.SetReadLimit(m.maxMessageSize)

	logger := m.logger.WithField("remote", req.RemoteAddr)

	atomic.AddUint64(&m.active, 1)
	defer atomic.AddUint64(&m.active, ^uint64(0))

	logger.Debugln("patch websocket connected")
	err = m.readPump(req.Context(), ws, logger)
	if err != nil {
		logger.WithError(err).Debugln("patch websocket closed with error")
		ws.Close(websocket.StatusInternalError, "")
		return
	}
	ws.Close(websocket.StatusNormalClosure, "")
	logger.Debugln("patch websocket disconnected")
}

func (m *Manager) readPump(ctx context.Context, ws *websocket.Conn, logger logrus.FieldLogger) error {
	var mt websocket.MessageType
	var reader io.Reader
	var b *bytes.Buffer
	var err error
	for {
		mt, reader, err = ws.Reader(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				logger.WithField("status_code", websocket.CloseStatus(err)).Debugln("patch websocket close")
				return nil
			}
			return err
		}

		b = bpool.Get()
		if _, err = b.ReadFrom(reader); err != nil {
			bpool.Put(b)
			return err
		}

		switch mt {
		case websocket.MessageText:
		default:
			bpool.Put(b)
			logger.WithField("message_type", mt).Warnln("patch websocket received unknown websocket message type")
			continue
		}

		request := &PatchRequest{}
		err = json.Unmarshal(b.Bytes(), request)
		bpool.Put(b)
		if err != nil {
			logger.WithError(err).Debugln("patch websocket message parse error")
			err = m.send(ctx, ws, &ErrorResponse{
				Error: api.NewErrorWithCodeAndMessage(
					api.ErrorCodeBadRequest,
					fmt.Sprintf("Failed to decode request: %v", err),
					api.ErrBadRequest,
				),
			})
		} else {
			err = m.handleWebsocketRequest(ctx, ws, request)
		}
		if err != nil {
			return err
		}
	}
}

func (m *Manager) handleWebsocketRequest(ctx context.Context, ws *websocket.Conn, request *PatchRequest) error {
	response, err := m.Patch(request)
	if err != nil {
		var e *api.ErrorWithCodeAndMessage
		if !errors.As(err, &e) {
			e = api.NewErrorWithCodeAndMessage(api.ErrorCodeUnspecifiedError, err.Error(), err)
		}
		return m.send(ctx, ws, &ErrorResponse{
			Transaction: request.Transaction,
			Error:       e,
		})
	}

	return m.send(ctx, ws, response)
}

func (m *Manager) send(ctx context.Context, ws *websocket.Conn, message interface{}) error {
	writer, err := ws.Writer(ctx, websocket.MessageText)
	if err != nil {
		return fmt.Errorf("failed to get websocket writer: %w", err)
	}

	encoder := json.NewEncoder(writer)
	err = encoder.Encode(message)
	if err != nil {
		writer.Close()
		return fmt.Errorf("failed to marshal websocket message: %w", err)
	}

	return writer.Close()
}
