package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"alterstory-server/shared/models"

	"github.com/go-playground/validator/v10"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validate - общий экземпляр валидатора; имена полей в ошибках берутся из json-тегов.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	return v
}

// fieldMessages сопоставляет "поле.тег" с текстом ошибки для клиента.
type fieldMessages map[string]string

// validateStruct возвращает *models.ValidationError для первого нарушенного правила.
// Поля проверяются в порядке объявления в структуре.
func validateStruct(input interface{}, messages fieldMessages) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	first := fieldErrs[0]
	field := first.Field()
	msg, ok := messages[field+"."+first.Tag()]
	if !ok {
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return models.NewValidationError(field, msg)
}

type storyInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=800"`
}

// storyMessages строит тексты ошибок для корня ("Story") или продолжения ("Continuation").
func storyMessages(subject string) fieldMessages {
	return fieldMessages{
		"title.required":   subject + " title is required",
		"title.max":        fmt.Sprintf("%s title cannot exceed %d characters", subject, models.MaxStoryTitleLength),
		"content.required": subject + " content is required",
		"content.max":      fmt.Sprintf("%s content cannot exceed %d characters", subject, models.MaxStoryContentLength),
	}
}

type commentInput struct {
	Content string `json:"content" validate:"required,max=1000"`
}

var commentMessages = fieldMessages{
	"content.required": "Comment cannot be empty",
	"content.max":      fmt.Sprintf("Comment cannot exceed %d characters", models.MaxCommentLength),
}

type profileInput struct {
	Username    string  `json:"username" validate:"required,min=3,max=50,username"`
	DisplayName string  `json:"display_name" validate:"required,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
}

var profileMessages = fieldMessages{
	"username.required":     "Username is required",
	"username.min":          "Username must be at least 3 characters",
	"username.max":          fmt.Sprintf("Username cannot exceed %d characters", models.MaxUsernameLength),
	"username.username":     "Username can only contain letters, numbers, underscores and hyphens",
	"display_name.required": "Display name is required",
	"display_name.max":      fmt.Sprintf("Display name cannot exceed %d characters", models.MaxDisplayNameLength),
	"bio.max":               fmt.Sprintf("Bio cannot exceed %d characters", models.MaxBioLength),
}

type searchInput struct {
	Query string `json:"q" validate:"required,min=2,max=100"`
}

var searchMessages = fieldMessages{
	"q.required": "Search query is required",
	"q.min":      "Search query must be at least 2 characters",
	"q.max":      "Search query cannot exceed 100 characters",
}
