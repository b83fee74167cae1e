package request

import (
	"errors"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Password must contain a letter, a digit and be at least 8 characters.
const passwordPattern = `^(?=.*[A-Za-z])(?=.*\d)[^\s]{8,72}$`

type SignupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

func (req *SignupRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email, validation.Length(3, 254)),
		validation.Field(&req.Password, validation.Required),
		validation.Field(&req.Name, validation.Required, validation.Length(2, 50)),
		validation.Field(&req.Role, validation.Required, validation.In("student", "tutor", "organizer")),
	)
	if err != nil {
		return err
	}

	return validatePassword(req.Password)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (req *LoginRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required),
		validation.Field(&req.Password, validation.Required),
	)
}

func validatePassword(password string) error {
	re := regexp2.MustCompile(passwordPattern, regexp2.None)

	ok, err := re.MatchString(password)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("password must be at least 8 characters and contain a letter and a digit")
	}

	return nil
}
