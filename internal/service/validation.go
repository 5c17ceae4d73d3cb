package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nurpe/repairdesk/internal/session"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic("register notblank: " + err.Error())
	}
	return v
}

// validationError flattens validator output into one ErrValidation.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "notblank":
			msgs = append(msgs, fe.Field()+" is required")
		case "required_without":
			msgs = append(msgs, fmt.Sprintf("%s is required when %s is empty", fe.Field(), strings.ToLower(fe.Param())))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

type orderRefs struct {
	ClientID    int64 `json:"client_id" validate:"required"`
	EquipmentID int64 `json:"equipment_id" validate:"required"`
}

type entryInput struct {
	Description string `json:"description" validate:"notblank"`
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// validateRefs checks the client/equipment pair of a draft before anything
// is sent: both selected, the equipment known, and owned by that client.
func (s *OrderService) validateRefs(sess *session.Session, clientID, equipmentID *int64) error {
	refs := orderRefs{ClientID: deref(clientID), EquipmentID: deref(equipmentID)}
	if err := s.validate.Struct(refs); err != nil {
		return validationError(err)
	}
	eq, ok := sess.FindEquipment(refs.EquipmentID)
	if !ok {
		return fmt.Errorf("%w: equipment %d does not exist", ErrValidation, refs.EquipmentID)
	}
	if !eq.OwnedBy(refs.ClientID) {
		return fmt.Errorf("%w: equipment does not belong to the selected client", ErrValidation)
	}
	return nil
}
