package util

import (
	"errors"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// ValidateStruct runs validator tags on s and folds every violation into one
// ErrBadParamInput error with english messages.
func ValidateStruct(s interface{}) error {
	validate := validator.New()
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return WrapErrorf(err, ErrBadParamInput, "validation error")
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, e.Translate(trans))
	}
	return WrapErrorf(nil, ErrBadParamInput, "validation error: %s", strings.Join(msgs, "; "))
}
