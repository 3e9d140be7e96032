package schema_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/folio/core"
	"github.com/relabs-tech/folio/core/schema"
	"github.com/relabs-tech/folio/core/store"
)

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	return verr.Message
}

func TestValidateContact(t *testing.T) {
	p := schema.MustNewPortfolio(true)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing email", `{"name":"Ada","message":"Hello there, world"}`, "All fields are required"},
		{"empty name", `{"name":"","email":"a@b.co","message":"Hello there, world"}`, "All fields are required"},
		{"bad email before short name", `{"name":"A","email":"nope","message":"Hello there, world"}`, "Invalid email format"},
		{"short name", `{"name":"A","email":"a@b.co","message":"Hello there, world"}`, "Name must be between 2 and 100 characters"},
		{"long name", `{"name":"` + strings.Repeat("x", 101) + `","email":"a@b.co","message":"Hello there, world"}`, "Name must be between 2 and 100 characters"},
		{"short message", `{"name":"Ada","email":"a@b.co","message":"Hi"}`, "Message must be between 10 and 1000 characters"},
		{"long message", `{"name":"Ada","email":"a@b.co","message":"` + strings.Repeat("m", 1001) + `"}`, "Message must be between 10 and 1000 characters"},
		{"blank name", `{"name":"   ","email":"a@b.co","message":"Hello there, world"}`, "All fields are required"},
		{"padded short name", `{"name":" A ","email":"a@b.co","message":"Hello there, world"}`, "Name must be between 2 and 100 characters"},
		{"padded email", `{"name":"Ada","email":"  not-an-email ","message":"Hello there, world"}`, "Invalid email format"},
		{"not an object", `[1,2]`, "Request body must be a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ValidateContact([]byte(tt.body))
			assert.Equal(t, tt.message, validationMessage(t, err))
		})
	}
}

func TestValidateContactNormalizes(t *testing.T) {
	p := schema.MustNewPortfolio(true)
	contact, err := p.ValidateContact([]byte(`{"name":" Ada ","email":" Ada@Example.COM ","message":"  Hello there, world  "}`))
	require.NoError(t, err)
	assert.Equal(t, store.NewContact{Name: "Ada", Email: "ada@example.com", Message: "Hello there, world"}, contact)
}

func TestValidateContactBoundaries(t *testing.T) {
	p := schema.MustNewPortfolio(true)
	_, err := p.ValidateContact([]byte(`{"name":"Al","email":"a@b.co","message":"` + strings.Repeat("m", 10) + `"}`))
	assert.NoError(t, err)
	_, err = p.ValidateContact([]byte(`{"name":"` + strings.Repeat("n", 100) + `","email":"a@b.co","message":"` + strings.Repeat("m", 1000) + `"}`))
	assert.NoError(t, err)
}

func TestValidateSkill(t *testing.T) {
	p := schema.MustNewPortfolio(true)

	_, err := p.ValidateSkill([]byte(`{"name":"Go","category":"backend","level":101}`), core.OperationCreate)
	assert.Equal(t, "Level must be between 0 and 100", validationMessage(t, err))

	_, err = p.ValidateSkill([]byte(`{"name":"Go","category":"backend","level":-1}`), core.OperationCreate)
	assert.Equal(t, "Level must be between 0 and 100", validationMessage(t, err))

	_, err = p.ValidateSkill([]byte(`{"name":"Go","category":"backend"}`), core.OperationCreate)
	assert.Equal(t, "Missing required fields", validationMessage(t, err))

	patch, err := p.ValidateSkill([]byte(`{"name":"Go","category":"backend","level":0}`), core.OperationCreate)
	require.NoError(t, err)
	require.NotNil(t, patch.Level)
	assert.Equal(t, 0, *patch.Level)

	_, err = p.ValidateSkill([]byte(`{"level":150}`), core.OperationUpdate)
	assert.Equal(t, "Level must be between 0 and 100", validationMessage(t, err))

	patch, err = p.ValidateSkill([]byte(`{"category":"cloud"}`), core.OperationUpdate)
	require.NoError(t, err)
	assert.Nil(t, patch.Name)
	assert.Equal(t, "cloud", *patch.Category)
}

func TestValidateSkillWithoutLevels(t *testing.T) {
	p := schema.MustNewPortfolio(false)
	patch, err := p.ValidateSkill([]byte(`{"name":"Go","category":"backend"}`), core.OperationCreate)
	require.NoError(t, err)
	assert.Nil(t, patch.Level)

	_, err = p.ValidateSkill([]byte(`{"name":"Go","category":"backend","level":200}`), core.OperationCreate)
	assert.Equal(t, "Level must be between 0 and 100", validationMessage(t, err))
}

func TestValidateProject(t *testing.T) {
	p := schema.MustNewPortfolio(true)

	_, err := p.ValidateProject([]byte(`{"title":"T","description":"D"}`), core.OperationCreate)
	assert.Equal(t, "Missing required fields", validationMessage(t, err))

	_, err = p.ValidateProject([]byte(`{"title":"T","description":"D","tech":[]}`), core.OperationCreate)
	assert.Equal(t, "Missing required fields", validationMessage(t, err))

	patch, err := p.ValidateProject([]byte(`{"title":"T","description":"D","tech":["Go"]}`), core.OperationCreate)
	require.NoError(t, err)
	project := store.NewProject(patch)
	assert.Equal(t, "#", project.Link)
	assert.Nil(t, project.Image)
	assert.False(t, project.Featured)

	_, err = p.ValidateProject([]byte(`{"featured":"yes"}`), core.OperationUpdate)
	assert.Equal(t, "Featured must be a boolean", validationMessage(t, err))

	patch, err = p.ValidateProject([]byte(`{}`), core.OperationUpdate)
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty())

	patch, err = p.ValidateProject([]byte(`{"image":null}`), core.OperationUpdate)
	require.NoError(t, err)
	assert.True(t, patch.ClearImage)
}

func TestValidateCredentials(t *testing.T) {
	p := schema.MustNewPortfolio(true)
	_, err := p.ValidateCredentials([]byte(`{"email":"a@b.co"}`))
	assert.Equal(t, "Email and password are required", validationMessage(t, err))

	credentials, err := p.ValidateCredentials([]byte(`{"email":" A@B.co ","password":"pw"}`))
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", credentials.Email)
}
