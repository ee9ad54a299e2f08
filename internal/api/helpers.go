// Package api implements the emulator's REST surface: the document
// database's v1 resource routes and the authentication emulator's
// identitytoolkit routes. Handlers translate wire bodies to native
// field values, call into the store, and map store failures onto the
// service's status envelope.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/hearthly/hearth/pkg/resourcepath"
	"github.com/hearthly/hearth/pkg/store"
	"github.com/hearthly/hearth/pkg/wirevalue"
)

// rpcError is the google.rpc-style error envelope clients expect:
// {"error": {"code": 404, "message": "...", "status": "NOT_FOUND"}}.
type rpcError struct {
	Error rpcErrorBody `json:"error"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func respondJSON(w http.ResponseWriter, log hclog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("error encoding response", "error", err)
	}
}

func respondError(w http.ResponseWriter, log hclog.Logger, code int, status, message string) {
	respondJSON(w, log, code, rpcError{Error: rpcErrorBody{
		Code:    code,
		Message: message,
		Status:  status,
	}})
}

// respondStoreError maps the core error taxonomy onto HTTP statuses.
// Path and codec failures are client errors; anything unrecognized is
// reported as internal without leaking details.
func respondStoreError(w http.ResponseWriter, log hclog.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, log, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		respondError(w, log, http.StatusConflict, "ALREADY_EXISTS", err.Error())
	case errors.Is(err, resourcepath.ErrInvalidPath),
		errors.Is(err, wirevalue.ErrMalformedValue),
		errors.Is(err, wirevalue.ErrUnsupportedValueKind):
		respondError(w, log, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	default:
		log.Error("internal error", "error", err)
		respondError(w, log, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
