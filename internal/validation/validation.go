// Package validation checks and normalizes user input before it reaches the
// store. Every failure is reported as an apperr validation error carrying the
// first failing field and a user-facing message.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/B1zn3/SearchWork-Website/internal/apperr"
	"github.com/B1zn3/SearchWork-Website/internal/config"
	"github.com/B1zn3/SearchWork-Website/internal/models"

	"github.com/go-playground/validator/v10"
)

const (
	MsgNameEmpty    = "ФИО не может быть пустым"
	MsgNamePattern  = "ФИО должно содержать только русские буквы, пробелы и дефисы (2-100 символов)"
	MsgNameWords    = "ФИО должно содержать минимум имя и фамилию"
	MsgPhoneEmpty   = "Номер телефона не может быть пустым"
	MsgPhoneBelarus = "Некорректный номер телефона. Используйте белорусский формат: +375 XX XXX-XX-XX"
	MsgPhoneIntl    = "Некорректный номер телефона. Используйте международный формат: +XXXXXXXXXXX"
	MsgEmail        = "Некорректный адрес электронной почты"
	MsgExperience   = "Описание опыта работы не должно превышать 2000 символов"
	MsgTitle        = "Название вакансии должно содержать от 5 до 200 символов"
	MsgDescription  = "Описание вакансии не может быть пустым"
	MsgLocation     = "Местоположение не может быть пустым"
	MsgSalary       = "Укажите зарплату, она не может быть отрицательной"
	MsgAddress      = "Адрес должен содержать от 8 до 100 символов"
	MsgStatus       = "Недопустимый статус заявки"
	MsgInvalidField = "Некорректное значение поля"
)

var (
	namePattern   = regexp.MustCompile(`^[А-Яа-яЁё\p{Z}\t\n\v\f\r\x{85}-]{2,100}$`)
	phoneStrip    = regexp.MustCompile(`[\s\-()]`)
	phoneBelarus  = regexp.MustCompile(`^(\+375|80)(25|29|33|44|17)\d{7}$`)
	phoneIntl     = regexp.MustCompile(`^\+?[1-9]\d{9,14}$`)
	fieldMessages = map[string]string{
		"email":        MsgEmail,
		"site_email":   MsgEmail,
		"experience":   MsgExperience,
		"title":        MsgTitle,
		"description":  MsgDescription,
		"location":     MsgLocation,
		"salary":       MsgSalary,
		"site_address": MsgAddress,
	}
)

type Validator struct {
	validate   *validator.Validate
	phone      *regexp.Regexp
	phoneError string
}

// New builds a validator. phoneFormat selects the accepted phone rule, see
// config.PhoneFormatBelarus and config.PhoneFormatInternational.
func New(phoneFormat string) *Validator {
	v := &Validator{
		validate:   validator.New(),
		phone:      phoneBelarus,
		phoneError: MsgPhoneBelarus,
	}
	if phoneFormat == config.PhoneFormatInternational {
		v.phone = phoneIntl
		v.phoneError = MsgPhoneIntl
	}

	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.validate.RegisterValidation("fullname", func(fl validator.FieldLevel) bool {
		return NameError(fl.Field().String()) == ""
	})
	_ = v.validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return v.PhoneError(fl.Field().String()) == ""
	})

	return v
}

// NameError returns the message for the first broken full name rule, or "".
func NameError(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return MsgNameEmpty
	}
	if !namePattern.MatchString(name) {
		return MsgNamePattern
	}
	if len(strings.Fields(name)) < 2 {
		return MsgNameWords
	}
	return ""
}

// CleanPhone drops spaces, hyphens and parentheses.
func CleanPhone(phone string) string {
	return phoneStrip.ReplaceAllString(strings.TrimSpace(phone), "")
}

// PhoneError returns the message for the first broken phone rule, or "".
func (v *Validator) PhoneError(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return MsgPhoneEmpty
	}
	if !v.phone.MatchString(CleanPhone(phone)) {
		return v.phoneError
	}
	return ""
}

func (v *Validator) Application(in models.ApplicationInput) (models.ApplicationInput, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Experience = strings.TrimSpace(in.Experience)

	return in, v.check(in)
}

func (v *Validator) Job(in models.JobInput) (models.JobInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Requirements = trimOptional(in.Requirements)
	in.ConditionsAndBenefits = trimOptional(in.ConditionsAndBenefits)

	return in, v.check(in)
}

func (v *Validator) Settings(in models.SettingsInput) (models.SettingsInput, error) {
	in.SiteEmail = strings.TrimSpace(in.SiteEmail)
	in.SitePhone = strings.TrimSpace(in.SitePhone)
	in.SiteAddress = strings.TrimSpace(in.SiteAddress)

	return in, v.check(in)
}

func (v *Validator) Status(raw string) (models.ApplicationStatus, error) {
	status := models.ApplicationStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", apperr.Validation("status", MsgStatus)
	}
	return status, nil
}

func (v *Validator) check(in any) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Wrap(err, apperr.CodeValidation, MsgInvalidField)
	}

	fe := fieldErrs[0]
	return apperr.Validation(fe.Field(), v.message(fe))
}

func (v *Validator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "fullname":
		return NameError(fe.Value().(string))
	case "phone":
		return v.PhoneError(fe.Value().(string))
	}
	if msg, ok := fieldMessages[fe.Field()]; ok {
		return msg
	}
	return MsgInvalidField
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
