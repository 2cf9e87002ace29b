package model

import (
	"errors"
	"testing"

	laraerrors "github.com/livp123/laratail/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidateSiteID(t *testing.T) {
	valid := []string{"shop", "api.example.com", "site_1", "my-site"}
	for _, id := range valid {
		assert.NoError(t, ValidateSiteID(id), id)
	}

	invalid := []string{"", "  ", ".", "..", "a/b", "../etc", `a\b`, "a\x00b"}
	for _, id := range invalid {
		err := ValidateSiteID(id)
		assert.Error(t, err, id)
		assert.True(t, errors.Is(err, laraerrors.ErrInvalidSite), id)
	}
}
