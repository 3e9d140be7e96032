// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/relabs-tech/folio/core/logger"
)

var (
	// Version is the version of the current build
	Version = "unset"
)

type health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Store     string    `json:"store"`
	Degraded  bool      `json:"degraded"`
	Version   string    `json:"version"`
}

func (b *Backend) handleHealth(router *mux.Router) {
	logger.Default().Debugln("health")
	logger.Default().Debugln("  handle health route: /api/health GET")
	router.HandleFunc("/health", b.health).Methods(http.MethodGet)
}

// health reports "OK" unless the store cannot be reached
func (b *Backend) health(w http.ResponseWriter, r *http.Request) {
	h := health{
		Status:    "OK",
		Timestamp: b.now().UTC(),
		Store:     b.store.Driver(),
		Degraded:  b.degraded,
		Version:   Version,
	}
	status := http.StatusOK
	if err := b.store.Ping(r.Context()); err != nil {
		logger.FromContext(r.Context()).WithError(err).Errorln("Error 4601: store ping failed")
		h.Status = "UNAVAILABLE"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}
