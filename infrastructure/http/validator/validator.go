package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	domainerr "github.com/oily/oily-api/domain/error"
	"github.com/oily/oily-api/domain/valueobject"
)

const maxBodyBytes = 1 << 20

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("nickname", func(fl validator.FieldLevel) bool {
		return valueobject.IsValidNickname(fl.Field().String())
	})
	return v
}

// Struct runs the validate tags of s and maps failures to InvalidInput.
func Struct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return domainerr.Wrap(domainerr.ErrInvalidInput, describe(err), err)
	}
	return nil
}

// DecodeJSON reads a JSON body into dst and validates it.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domainerr.Wrap(domainerr.ErrInvalidInput, "malformed JSON body", err)
	}
	return Struct(dst)
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
}
