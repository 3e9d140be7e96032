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
	"github.com/relabs-tech/folio/core/pointers"
	"github.com/relabs-tech/folio/core/store"
)

// ProjectResource is the resource name project changes are notified with
const ProjectResource = "project"

const msgProjectNotFound = "Project not found"

func (b *Backend) handleProjects(router *mux.Router) {
	logger.Default().Debugln("projects")
	logger.Default().Debugln("  handle route: /api/projects GET")
	logger.Default().Debugln("  handle route: /api/projects POST")
	logger.Default().Debugln("  handle route: /api/projects/{id} GET")
	logger.Default().Debugln("  handle route: /api/projects/{id} PUT")
	logger.Default().Debugln("  handle route: /api/projects/{id} DELETE")

	router.HandleFunc("/projects", b.listProjects).Methods(http.MethodGet)
	router.Handle("/projects", b.issuer.GateFunc(b.createProject)).Methods(http.MethodPost)
	router.HandleFunc("/projects/{id}", b.getProject).Methods(http.MethodGet)
	router.Handle("/projects/{id}", b.issuer.GateFunc(b.updateProject)).Methods(http.MethodPut)
	router.Handle("/projects/{id}", b.issuer.GateFunc(b.deleteProject)).Methods(http.MethodDelete)
}

func (b *Backend) listProjects(w http.ResponseWriter, r *http.Request) {
	var filter store.ProjectFilter
	switch r.URL.Query().Get("featured") {
	case "true":
		filter.Featured = pointers.BoolPtr(true)
	case "false":
		filter.Featured = pointers.BoolPtr(false)
	}
	projects, err := b.store.ListProjects(r.Context(), filter)
	if err != nil {
		respondError(w, r, err, failure{tag: "Error 4101", message: "Failed to fetch projects"})
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (b *Backend) getProject(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4102", notFound: msgProjectNotFound, message: "Failed to fetch project"}
	id, err := idFromPath(r)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	project, err := b.store.GetProject(r.Context(), id)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (b *Backend) createProject(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4103", message: "Failed to create project"}
	body, err := readBody(w, r)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	patch, err := b.validator.ValidateProject(body, core.OperationCreate)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	project, err := b.store.CreateProject(r.Context(), store.NewProject(patch))
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	logger.FromContext(r.Context()).Infof("created project %d", project.ID)
	b.notify(r.Context(), ProjectResource, core.OperationCreate, project)
	writeJSON(w, http.StatusCreated, project)
}

func (b *Backend) updateProject(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4104", notFound: msgProjectNotFound, message: "Failed to update project"}
	id, err := idFromPath(r)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	patch, err := b.validator.ValidateProject(body, core.OperationUpdate)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	project, err := b.store.UpdateProject(r.Context(), id, patch)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	b.notify(r.Context(), ProjectResource, core.OperationUpdate, project)
	writeJSON(w, http.StatusOK, project)
}

func (b *Backend) deleteProject(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4105", notFound: msgProjectNotFound, message: "Failed to delete project"}
	id, err := idFromPath(r)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	project, err := b.store.DeleteProject(r.Context(), id)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	logger.FromContext(r.Context()).Infof("deleted project %d", id)
	b.notify(r.Context(), ProjectResource, core.OperationDelete, project)
	writeMessage(w, http.StatusOK, "Project deleted successfully")
}
