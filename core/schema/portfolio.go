// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/folio/core"
	"github.com/relabs-tech/folio/core/store"
)

//go:embed schemas
var schemaFS embed.FS

const schemaBase = "http://folio.relabs.tech/schemas/"

// Schema IDs of the embedded schemas
const (
	ContactSchema          = schemaBase + "contact.json"
	ProjectCreateSchema    = schemaBase + "project-create.json"
	ProjectUpdateSchema    = schemaBase + "project-update.json"
	SkillCreateSchema      = schemaBase + "skill-create.json"
	SkillCreateLevelSchema = schemaBase + "skill-create-level.json"
	SkillUpdateSchema      = schemaBase + "skill-update.json"
	CredentialsSchema      = schemaBase + "credentials.json"
)

// ValidationError is the first violated constraint of a request body
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// rule maps violations of a field to client messages. The order of a rule
// table is the order in which fields are checked.
type rule struct {
	field    string
	required string
	invalid  string
}

const (
	msgAllFieldsRequired = "All fields are required"
	msgMissingFields     = "Missing required fields"
	msgLevelRange        = "Level must be between 0 and 100"
	msgInvalidBody       = "Request body must be a JSON object"
)

var (
	contactRules = []rule{
		{"email", msgAllFieldsRequired, "Invalid email format"},
		{"name", msgAllFieldsRequired, "Name must be between 2 and 100 characters"},
		{"message", msgAllFieldsRequired, "Message must be between 10 and 1000 characters"},
	}
	projectCreateRules = []rule{
		{"title", msgMissingFields, msgMissingFields},
		{"description", msgMissingFields, msgMissingFields},
		{"tech", msgMissingFields, msgMissingFields},
		{"link", "", "Link must be a string"},
		{"image", "", "Image must be a string or null"},
		{"featured", "", "Featured must be a boolean"},
	}
	projectUpdateRules = []rule{
		{"title", "", "Title must be a non-empty string"},
		{"description", "", "Description must be a non-empty string"},
		{"tech", "", "Tech must be a non-empty list of strings"},
		{"link", "", "Link must be a string"},
		{"image", "", "Image must be a string or null"},
		{"featured", "", "Featured must be a boolean"},
	}
	skillCreateRules = []rule{
		{"name", msgMissingFields, msgMissingFields},
		{"category", msgMissingFields, msgMissingFields},
		{"level", msgMissingFields, msgLevelRange},
	}
	skillUpdateRules = []rule{
		{"level", "", msgLevelRange},
		{"name", "", "Name must be a non-empty string"},
		{"category", "", "Category must be a non-empty string"},
	}
	credentialsRules = []rule{
		{"email", "Email and password are required", "Email and password are required"},
		{"password", "Email and password are required", "Email and password are required"},
	}
)

// Portfolio validates the request bodies of the portfolio entities
type Portfolio struct {
	validator   *Validator
	skillLevels bool
}

// NewPortfolio returns a validator for the embedded portfolio schemas. With
// skillLevels a skill cannot be created without a level.
func NewPortfolio(skillLevels bool) (*Portfolio, error) {
	sub, err := fs.Sub(schemaFS, "schemas")
	if err != nil {
		return nil, err
	}
	validator, err := NewValidatorFromFS(sub)
	if err != nil {
		return nil, err
	}
	return &Portfolio{validator: validator, skillLevels: skillLevels}, nil
}

// MustNewPortfolio is NewPortfolio which panics on error
func MustNewPortfolio(skillLevels bool) *Portfolio {
	p, err := NewPortfolio(skillLevels)
	if err != nil {
		panic(err)
	}
	return p
}

// SkillLevels returns true if skills require a level
func (p *Portfolio) SkillLevels() bool {
	return p.skillLevels
}

// ValidateContact validates a contact submission and returns it normalized.
// Strings are trimmed before they are checked, blank strings count as missing.
func (p *Portfolio) ValidateContact(body []byte) (store.NewContact, error) {
	var document map[string]interface{}
	if err := json.Unmarshal(body, &document); err != nil || document == nil {
		return store.NewContact{}, &ValidationError{Message: msgInvalidBody}
	}
	for key, value := range document {
		if str, ok := value.(string); ok {
			value = strings.TrimSpace(str)
			document[key] = value
		}
		if value == nil || value == "" {
			delete(document, key)
		}
	}
	if err := p.check(document, ContactSchema, contactRules); err != nil {
		return store.NewContact{}, err
	}
	var contact store.NewContact
	if err := json.Unmarshal(body, &contact); err != nil {
		return store.NewContact{}, &ValidationError{Message: msgInvalidBody}
	}
	return NormalizeContact(contact), nil
}

// NormalizeContact trims all fields and lower-cases the email
func NormalizeContact(contact store.NewContact) store.NewContact {
	return store.NewContact{
		Name:    strings.TrimSpace(contact.Name),
		Email:   strings.ToLower(strings.TrimSpace(contact.Email)),
		Message: strings.TrimSpace(contact.Message),
	}
}

// ValidateProject validates a project body for a create or an update
// operation and returns the decoded patch.
func (p *Portfolio) ValidateProject(body []byte, operation core.Operation) (store.ProjectPatch, error) {
	schemaID, rules := ProjectUpdateSchema, projectUpdateRules
	if operation == core.OperationCreate {
		schemaID, rules = ProjectCreateSchema, projectCreateRules
	}
	document, err := decodeObject(body)
	if err != nil {
		return store.ProjectPatch{}, err
	}
	if err := p.check(document, schemaID, rules); err != nil {
		return store.ProjectPatch{}, err
	}
	var patch store.ProjectPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		return store.ProjectPatch{}, &ValidationError{Message: msgInvalidBody}
	}
	return patch, nil
}

// ValidateSkill validates a skill body for a create or an update operation and
// returns the decoded patch.
func (p *Portfolio) ValidateSkill(body []byte, operation core.Operation) (store.SkillPatch, error) {
	schemaID, rules := SkillUpdateSchema, skillUpdateRules
	if operation == core.OperationCreate {
		schemaID, rules = SkillCreateSchema, skillCreateRules
		if p.skillLevels {
			schemaID = SkillCreateLevelSchema
		}
	}
	document, err := decodeObject(body)
	if err != nil {
		return store.SkillPatch{}, err
	}
	if err := p.check(document, schemaID, rules); err != nil {
		return store.SkillPatch{}, err
	}
	var patch store.SkillPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		return store.SkillPatch{}, &ValidationError{Message: msgInvalidBody}
	}
	return patch, nil
}

// Credentials are the email and password of a register or login request
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidateCredentials validates a register or login body. The email is
// returned trimmed and lower-cased.
func (p *Portfolio) ValidateCredentials(body []byte) (Credentials, error) {
	document, err := decodeObject(body)
	if err != nil {
		return Credentials{}, err
	}
	if err := p.check(document, CredentialsSchema, credentialsRules); err != nil {
		return Credentials{}, err
	}
	var credentials Credentials
	if err := json.Unmarshal(body, &credentials); err != nil {
		return Credentials{}, &ValidationError{Message: msgInvalidBody}
	}
	credentials.Email = strings.ToLower(strings.TrimSpace(credentials.Email))
	return credentials, nil
}

func decodeObject(body []byte) (map[string]interface{}, error) {
	var document map[string]interface{}
	if err := json.Unmarshal(body, &document); err != nil || document == nil {
		return nil, &ValidationError{Message: msgInvalidBody}
	}
	return document, nil
}

// check validates document and returns the first violation in rule order.
// Missing fields are reported before invalid ones.
func (p *Portfolio) check(document map[string]interface{}, schemaID string, rules []rule) error {
	violations, err := p.validator.ValidateStruct(document, schemaID)
	if err != nil {
		return fmt.Errorf("cannot validate: %w", err)
	}
	if len(violations) == 0 {
		return nil
	}
	required := map[string]bool{}
	invalid := map[string]bool{}
	for _, v := range violations {
		if v.Required {
			required[v.Field] = true
		} else if v.Field != "" {
			invalid[v.Field] = true
		}
	}
	for _, r := range rules {
		if required[r.field] && r.required != "" {
			return &ValidationError{Field: r.field, Message: r.required}
		}
	}
	for _, r := range rules {
		if invalid[r.field] {
			return &ValidationError{Field: r.field, Message: r.invalid}
		}
	}
	return &ValidationError{Message: msgInvalidBody}
}
