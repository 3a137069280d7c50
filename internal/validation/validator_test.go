package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/openshelf/openshelf-server/internal/errors"
)

type createAuthorForm struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Country string `json:"country" validate:"required"`
}

func TestValidate_Passes(t *testing.T) {
	v := New()
	err := v.Validate(createAuthorForm{Name: "Ursula K. Le Guin", Country: "US"})
	require.NoError(t, err)
}

func TestValidate_MissingFields(t *testing.T) {
	v := New()
	err := v.Validate(createAuthorForm{})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "is required", details["country"])
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	type form struct {
		AuthorID string `json:"author,omitempty" validate:"required"`
	}

	v := New()
	err := v.Validate(form{})

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "author")
}
