// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/relabs-tech/folio/core"
	"github.com/relabs-tech/folio/core/logger"
)

// ContactResource is the resource name contacts are notified with
const ContactResource = "contact"

type contactCreated struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

func (b *Backend) handleContacts(router *mux.Router) {
	logger.Default().Debugln("contacts")
	logger.Default().Debugln("  handle route: /api/contact POST")
	logger.Default().Debugln("  handle route: /api/contacts GET")
	logger.Default().Debugln("  handle route: /api/contacts/{id}/read PATCH")

	router.Handle("/contact", b.contactLimiter.Middleware(http.HandlerFunc(b.createContact))).Methods(http.MethodPost)
	router.Handle("/contacts", b.issuer.GateFunc(b.listContacts)).Methods(http.MethodGet)
	router.Handle("/contacts/{id}/read", b.issuer.GateFunc(b.markContactRead)).Methods(http.MethodPatch)
}

func (b *Backend) createContact(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4401", message: "Failed to send message"}
	body, err := readBody(w, r)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	submission, err := b.validator.ValidateContact(body)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	contact, err := b.store.CreateContact(r.Context(), submission)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	logger.FromContext(r.Context()).Infof("new contact form submission %d from %s", contact.ID, contact.Email)
	b.notify(r.Context(), ContactResource, core.OperationCreate, contact)

	writeJSON(w, http.StatusCreated, contactCreated{Message: "Message sent successfully", ID: contact.ID})
}

func (b *Backend) listContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := b.store.ListContacts(r.Context())
	if err != nil {
		respondError(w, r, err, failure{tag: "Error 4402", message: "Failed to fetch contacts"})
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (b *Backend) markContactRead(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4403", notFound: "Contact not found", message: "Failed to update contact"}
	id, err := idFromPath(r)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	contact, err := b.store.MarkContactRead(r.Context(), id)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}
