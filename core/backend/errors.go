// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/relabs-tech/folio/core/logger"
	"github.com/relabs-tech/folio/core/schema"
	"github.com/relabs-tech/folio/core/store"
)

// maxBodySize limits JSON request bodies
const maxBodySize = 1 << 20

const (
	msgRouteNotFound     = "Route not found"
	msgSomethingWrong    = "Something went wrong!"
	msgUserAlreadyExists = "User already exists"
)

// failure describes how an operation reports its errors to the client
type failure struct {
	// tag is the numbered log tag, e.g. "Error 4101"
	tag string
	// notFound is the message for store.ErrNotFound
	notFound string
	// message is the generic message for every other error
	message string
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Default().WithError(err).Errorln("Error 4001: cannot marshal response")
		status = http.StatusInternalServerError
		body = []byte(`{"error":"` + msgSomethingWrong + `"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// respondError maps err to a status code. Validation errors carry their own
// message; everything unclassified is logged and answered with f.message.
func respondError(w http.ResponseWriter, r *http.Request, err error, f failure) {
	rlog := logger.FromContext(r.Context())

	var validation *schema.ValidationError
	switch {
	case errors.As(err, &validation):
		rlog.Debugf("%s: rejected request: %s", f.tag, validation.Message)
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, store.ErrNotFound) && f.notFound != "":
		writeError(w, http.StatusNotFound, f.notFound)
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, msgUserAlreadyExists)
	default:
		rlog.WithError(err).Errorf("%s: %s", f.tag, f.message)
		writeError(w, http.StatusInternalServerError, f.message)
	}
}

// readBody reads a JSON request body of limited size. A missing body reads as
// empty.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, &schema.ValidationError{Message: "Request body too large or unreadable"}
	}
	return body, nil
}

// idFromPath parses the {id} path variable. An id which is not a positive
// integer cannot exist and is reported as store.ErrNotFound.
func idFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id '%s': %w", mux.Vars(r)["id"], store.ErrNotFound)
	}
	return id, nil
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Debugln("no route for", r.Method, r.URL.Path)
	writeError(w, http.StatusNotFound, msgRouteNotFound)
}

// recovery turns a panicking handler into a generic 500
func recovery(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logger.FromContext(r.Context()).Errorf("Error 4000: recovered from panic: %v\n%s", err, debug.Stack())
				writeError(w, http.StatusInternalServerError, msgSomethingWrong)
			}
		}()
		h.ServeHTTP(w, r)
	})
}
