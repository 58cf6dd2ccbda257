/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/gorilla/mux"

	"stash.kopano.io/kwm/sdpguard/guard/odata"
)

func WriteResourceAsJSON(rw http.ResponseWriter, resource interface{}) error {
	return WriteResourceAsJSONWithStatus(rw, http.StatusOK, resource)
}

func WriteResourceAsJSONWithStatus(rw http.ResponseWriter, status int, resource interface{}) error {
	rw.Header().Add("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	encoder := json.NewEncoder(rw)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resource)
}

func WriteErrorAsJSON(rw http.ResponseWriter, err error) error {
	rw.Header().Add("Content-Type", "application/json; charset=utf-8")
	encoder := json.NewEncoder(rw)
	encoder.SetIndent("", "  ")

	switch {
	case err == nil:
		panic("writing nil error")
	case errors.Is(err, ErrNotFound):
		rw.WriteHeader(http.StatusNotFound)
	case errors.Is(err, ErrBadRequest):
		rw.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, ErrUnprocessable):
		rw.WriteHeader(http.StatusUnprocessableEntity)
	default:
		rw.WriteHeader(http.StatusInternalServerError)
	}

	var e *ErrorWithCodeAndMessage
	if !errors.As(err, &e) {
		e = NewErrorWithCodeAndMessage(ErrorCodeUnspecifiedError, fmt.Errorf("unspecified error: %w", err).Error(), nil)
	}
	return encoder.Encode(NewErrorResource(e))
}

func GetRequestVars(req *http.Request) map[string]string {
	return mux.Vars(req)
}

func GetRequestVar(req *http.Request, name string) (string, bool) {
	value, found := GetRequestVars(req)[name]
	return value, found
}

func NewErrorResource(err error) *ErrorResource {
	return &ErrorResource{
		Error: err,
	}
}

func NewCollectionResource(values interface{}, req *http.Request, nextLink *string) *CollectionResource {
	resource := &CollectionResource{
		ODataContext: contextFromRequest(req),
		Values:       values,
	}
	if nextLink != nil {
		resource.ODataNextLink = *nextLink
	}

	v := reflect.ValueOf(values)
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		resource.ODataCount = v.Len()
	}
	if v.Kind() == reflect.Slice && v.IsNil() {
		resource.Values = []interface{}{}
	}

	return resource
}

func NewItemResource(item interface{}, req *http.Request) *ItemResource {
	return &ItemResource{
		ODataContext: contextFromRequest(req),
		Item:         item,
	}
}

func contextFromRequest(req *http.Request) string {
	if o := odata.FromContext(req.Context()); o != nil {
		return o.Context
	}
	return req.URL.Path
}
