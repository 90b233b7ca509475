package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aliskhannn/notification-dispatcher/internal/model"
)

// CreateRequest represents the JSON body expected in a notification creation request.
type CreateRequest struct {
	UserID   string         `json:"userId" validate:"required"`
	Type     string         `json:"type" validate:"required,channel"`
	Title    string         `json:"title" validate:"required"`
	Content  string         `json:"content" validate:"required"`
	Metadata map[string]any `json:"metadata"`
}

// Notification converts a validated request into a notification.
func (r CreateRequest) Notification() (model.Notification, error) {
	channel, err := model.ParseChannel(r.Type)
	if err != nil {
		return model.Notification{}, err
	}

	return model.Notification{
		UserID:   r.UserID,
		Channel:  channel,
		Title:    r.Title,
		Content:  r.Content,
		Metadata: r.Metadata,
	}, nil
}

// StatusResponse is the body of a status lookup.
type StatusResponse struct {
	ID     string       `json:"id"`
	Status model.Status `json:"status"`
}

// NewValidator returns a validator that knows the "channel" tag and reports
// fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// the tag is valid and the function non-nil, so registration cannot fail
	_ = v.RegisterValidation("channel", func(fl validator.FieldLevel) bool {
		_, err := model.ParseChannel(fl.Field().String())
		return err == nil
	})

	return v
}

// Describe turns a validation error into a message for the client. Missing
// fields are reported before an invalid type.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	var missing []string
	invalidType := false

	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			missing = append(missing, fe.Field())
		case "channel":
			invalidType = true
		}
	}

	switch {
	case len(missing) > 0:
		return "missing required fields: " + strings.Join(missing, ", ")
	case invalidType:
		return "invalid notification type, must be one of: " + model.ChannelNames()
	default:
		return err.Error()
	}
}
