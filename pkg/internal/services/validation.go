package services

import (
	"errors"
	"strings"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"github.com/go-playground/validator/v10"
)

const MaxCommentLength = 500

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("recipe_category", func(fl validator.FieldLevel) bool {
		return models.IsRecipeCategory(fl.Field().String())
	})
	_ = v.RegisterValidation("meat_type", func(fl validator.FieldLevel) bool {
		return models.IsMeatType(fl.Field().String())
	})
	return v
}

type CommentForm struct {
	Text string `json:"text" validate:"required,max=500"`
}

type RecipeForm struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description" validate:"required"`
	Ingredients     string `json:"ingredients" validate:"required"`
	Instructions    string `json:"instructions" validate:"required"`
	Category        string `json:"category" validate:"required,recipe_category"`
	MeatType        string `json:"meatType" validate:"required,meat_type"`
	PrepTimeMinutes int    `json:"prepTimeMinutes" validate:"min=0"`
	Servings        int    `json:"servings" validate:"min=1"`
}

type GroupForm struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Category    string `json:"category" validate:"omitempty,recipe_category"`
}

// BindAndValidate trims the text fields of a form and checks it, converting the
// first failing field into a ValidationError.
func BindAndValidate(form any) error {
	switch v := form.(type) {
	case *CommentForm:
		v.Text = strings.TrimSpace(v.Text)
	case *RecipeForm:
		v.Title = strings.TrimSpace(v.Title)
		v.Description = strings.TrimSpace(v.Description)
		v.Ingredients = strings.TrimSpace(v.Ingredients)
		v.Instructions = strings.TrimSpace(v.Instructions)
	case *GroupForm:
		v.Name = strings.TrimSpace(v.Name)
		v.Description = strings.TrimSpace(v.Description)
	}

	if err := validate.Struct(form); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return &ValidationError{Field: fields[0].Field(), Message: describeRule(fields[0])}
		}
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "recipe_category":
		return "is not a known recipe category"
	case "meat_type":
		return "is not a known meat type"
	default:
		return "failed the " + fe.Tag() + " check"
	}
}

func RecipeFormFromDraft(draft models.PostDraft) RecipeForm {
	return RecipeForm{
		Title:           draft.Title,
		Description:     draft.Description,
		Ingredients:     draft.Ingredients,
		Instructions:    draft.Instructions,
		Category:        draft.Category,
		MeatType:        draft.MeatType,
		PrepTimeMinutes: draft.PrepTimeMinutes,
		Servings:        draft.Servings,
	}
}
