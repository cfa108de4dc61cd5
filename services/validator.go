package services

import (
	"fmt"
	"messenger/domain"
	"messenger/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateSend applies struct tags first, then the domain rules the tags
// cannot express: distinct correspondents, body-or-attachment presence, and
// a byte (not rune) limit on the body.
func validateSend(cmd domain.SendMessageCommand) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if err := cmd.From.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if err := cmd.To.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if cmd.From.Equal(cmd.To) {
		return fmt.Errorf("%w: %v", errors.ErrValidation, domain.ErrSelfConversation)
	}
	if cmd.Body == "" && cmd.Upload == nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, domain.ErrEmptyMessage)
	}
	if len(cmd.Body) > domain.MaxBodyBytes {
		return fmt.Errorf("%w: body is %d bytes, limit is %d",
			errors.ErrValidation, len(cmd.Body), domain.MaxBodyBytes)
	}
	return nil
}

func validateFetch(cmd domain.FetchConversationCommand) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if err := cmd.Self.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if err := cmd.Other.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}
