package service

import (
	"strings"
	"testing"

	"alterstory-server/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireValidationError(t *testing.T, err error, field, message string) {
	t.Helper()
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, field, validationErr.Field)
	assert.Equal(t, message, validationErr.Message)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestValidateStruct_Story(t *testing.T) {
	msgs := storyMessages("Story")

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, validateStruct(storyInput{Title: "T", Content: "C"}, msgs))
	})

	t.Run("Title checked before content", func(t *testing.T) {
		err := validateStruct(storyInput{}, msgs)
		requireValidationError(t, err, "title", "Story title is required")
	})

	t.Run("Content required", func(t *testing.T) {
		err := validateStruct(storyInput{Title: "T"}, msgs)
		requireValidationError(t, err, "content", "Story content is required")
	})

	t.Run("Title too long", func(t *testing.T) {
		err := validateStruct(storyInput{Title: strings.Repeat("a", 201), Content: "C"}, msgs)
		requireValidationError(t, err, "title", "Story title cannot exceed 200 characters")
	})

	t.Run("Length counts characters not bytes", func(t *testing.T) {
		err := validateStruct(storyInput{Title: strings.Repeat("я", 200), Content: strings.Repeat("ж", 800)}, msgs)
		assert.NoError(t, err)
	})

	t.Run("Continuation wording", func(t *testing.T) {
		err := validateStruct(storyInput{Title: "T", Content: strings.Repeat("a", 801)}, storyMessages("Continuation"))
		requireValidationError(t, err, "content", "Continuation content cannot exceed 800 characters")
	})
}

func TestValidateStruct_Profile(t *testing.T) {
	bio := strings.Repeat("b", 501)

	cases := []struct {
		name    string
		input   profileInput
		field   string
		message string
	}{
		{"Short username", profileInput{Username: "ab", DisplayName: "A"}, "username", "Username must be at least 3 characters"},
		{"Bad characters", profileInput{Username: "ab cd", DisplayName: "A"}, "username", "Username can only contain letters, numbers, underscores and hyphens"},
		{"Missing display name", profileInput{Username: "abc"}, "display_name", "Display name is required"},
		{"Long bio", profileInput{Username: "abc", DisplayName: "A", Bio: &bio}, "bio", "Bio cannot exceed 500 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			requireValidationError(t, validateStruct(tc.input, profileMessages), tc.field, tc.message)
		})
	}

	t.Run("Valid without bio", func(t *testing.T) {
		assert.NoError(t, validateStruct(profileInput{Username: "writer_1", DisplayName: "Writer"}, profileMessages))
	})
}
