// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/relabs-tech/folio/core/logger"
)

func (b *Backend) handleCORS(h http.Handler) http.Handler {
	origins := b.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	logger.Default().Debugln("CORS origins:", origins)

	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", logger.RequestIDHeader}),
		handlers.ExposedHeaders([]string{logger.RequestIDHeader, "Retry-After"}),
		handlers.AllowCredentials(),
		handlers.MaxAge(86400), // 24 hours
	)(h)
}
