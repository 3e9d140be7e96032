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
	"github.com/relabs-tech/folio/core/store"
)

// SkillResource is the resource name skill changes are notified with
const SkillResource = "skill"

const msgSkillNotFound = "Skill not found"

func (b *Backend) handleSkills(router *mux.Router) {
	logger.Default().Debugln("skills")
	logger.Default().Debugln("  handle route: /api/skills GET")
	logger.Default().Debugln("  handle route: /api/skills POST")
	logger.Default().Debugln("  handle route: /api/skills/{id} GET")
	logger.Default().Debugln("  handle route: /api/skills/{id} PUT")
	logger.Default().Debugln("  handle route: /api/skills/{id} DELETE")

	router.HandleFunc("/skills", b.listSkills).Methods(http.MethodGet)
	router.Handle("/skills", b.issuer.GateFunc(b.createSkill)).Methods(http.MethodPost)
	router.HandleFunc("/skills/{id}", b.getSkill).Methods(http.MethodGet)
	router.Handle("/skills/{id}", b.issuer.GateFunc(b.updateSkill)).Methods(http.MethodPut)
	router.Handle("/skills/{id}", b.issuer.GateFunc(b.deleteSkill)).Methods(http.MethodDelete)
}

func (b *Backend) listSkills(w http.ResponseWriter, r *http.Request) {
	filter := store.SkillFilter{Category: r.URL.Query().Get("category")}
	skills, err := b.store.ListSkills(r.Context(), filter)
	if err != nil {
		respondError(w, r, err, failure{tag: "Error 4201", message: "Failed to fetch skills"})
		return
	}
	writeJSON(w, http.StatusOK, skills)
}

func (b *Backend) getSkill(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4202", notFound: msgSkillNotFound, message: "Failed to fetch skill"}
	id, err := idFromPath(r)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	skill, err := b.store.GetSkill(r.Context(), id)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

func (b *Backend) createSkill(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4203", message: "Failed to create skill"}
	body, err := readBody(w, r)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	patch, err := b.validator.ValidateSkill(body, core.OperationCreate)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	skill, err := b.store.CreateSkill(r.Context(), store.NewSkill(patch))
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	logger.FromContext(r.Context()).Infof("created skill %d", skill.ID)
	b.notify(r.Context(), SkillResource, core.OperationCreate, skill)
	writeJSON(w, http.StatusCreated, skill)
}

func (b *Backend) updateSkill(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4204", notFound: msgSkillNotFound, message: "Failed to update skill"}
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
	patch, err := b.validator.ValidateSkill(body, core.OperationUpdate)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	skill, err := b.store.UpdateSkill(r.Context(), id, patch)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	b.notify(r.Context(), SkillResource, core.OperationUpdate, skill)
	writeJSON(w, http.StatusOK, skill)
}

func (b *Backend) deleteSkill(w http.ResponseWriter, r *http.Request) {
	f := failure{tag: "Error 4205", notFound: msgSkillNotFound, message: "Failed to delete skill"}
	id, err := idFromPath(r)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	skill, err := b.store.DeleteSkill(r.Context(), id)
	if err != nil {
		respondError(w, r, err, f)
		return
	}
	logger.FromContext(r.Context()).Infof("deleted skill %d", id)
	b.notify(r.Context(), SkillResource, core.OperationDelete, skill)
	writeMessage(w, http.StatusOK, "Skill deleted successfully")
}
