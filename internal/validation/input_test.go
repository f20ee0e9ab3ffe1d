package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
)

func TestRequiredText(t *testing.T) {
	got, err := RequiredText("название", "  Логотип ", MaxOrderTitleLength)
	require.NoError(t, err)
	assert.Equal(t, "Логотип", got)

	_, err = RequiredText("название", "   ", MaxOrderTitleLength)
	assert.True(t, apperror.IsValidation(err))

	_, err = RequiredText("название", strings.Repeat("я", MaxOrderTitleLength+1), MaxOrderTitleLength)
	assert.True(t, apperror.IsValidation(err))

	// Длина считается в символах, а не в байтах.
	_, err = RequiredText("название", strings.Repeat("я", MaxOrderTitleLength), MaxOrderTitleLength)
	assert.NoError(t, err)
}

func TestOptionalText(t *testing.T) {
	got, err := OptionalText("описание", "", MaxOrderDescriptionLength)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = OptionalText("комментарий", strings.Repeat("a", MaxCommentLength+1), MaxCommentLength)
	assert.True(t, apperror.IsValidation(err))
}

func TestValidatePhone(t *testing.T) {
	for _, ok := range []string{"+99361234567", "8 (12) 345-67", "+1"} {
		_, err := ValidatePhone(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"", "  ", "call me", "+", strings.Repeat("1", MaxPhoneLength+1)} {
		_, err := ValidatePhone(bad)
		assert.True(t, apperror.IsValidation(err), bad)
	}
}

func TestNormalizeCategory(t *testing.T) {
	got, err := NormalizeCategory(" Web ")
	require.NoError(t, err)
	assert.Equal(t, "web", got)

	got, err = NormalizeCategory("")
	require.NoError(t, err)
	assert.Equal(t, "other", got)
}
