package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"eventms/pkg/logger"
	"eventms/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type InvitationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewInvitationValidator(log *logger.Logger) *InvitationValidator {
	v := validator.New()

	log.Info("Invitation validator initialized successfully")

	return &InvitationValidator{
		validate: v,
		logger:   log,
	}
}

// ValidateEmails checks the batch-create input: at least one address, each
// one a well-formed email.
func (v *InvitationValidator) ValidateEmails(emails []string) error {
	var errs ValidationErrors

	if len(emails) == 0 {
		errs = append(errs, ValidationError{
			Field:   "Emails",
			Message: "at least one email is required",
		})
		return errs
	}

	for i, email := range emails {
		if err := v.validate.Var(email, "required,email"); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("Emails[%d]", i),
				Message: fmt.Sprintf("%q must be a valid email address", email),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *InvitationValidator) ValidateAction(action string) error {
	switch action {
	case model.InvitationActionAccept, model.InvitationActionDecline:
		return nil
	}
	return ValidationErrors{{
		Field:   "Action",
		Message: fmt.Sprintf("must be %q or %q", model.InvitationActionAccept, model.InvitationActionDecline),
	}}
}
