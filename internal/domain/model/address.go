package model

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
)

// Region is a shipping region served by the store.
type Region string

const (
	RegionDhaka      Region = "dhaka"
	RegionChattogram Region = "chattogram"
	RegionKhulna     Region = "khulna"
	RegionRajshahi   Region = "rajshahi"
	RegionBarishal   Region = "barishal"
	RegionSylhet     Region = "sylhet"
	RegionRangpur    Region = "rangpur"
	RegionMymensingh Region = "mymensingh"
)

// Regions lists every accepted region.
var Regions = []Region{
	RegionDhaka, RegionChattogram, RegionKhulna, RegionRajshahi,
	RegionBarishal, RegionSylhet, RegionRangpur, RegionMymensingh,
}

// Valid reports whether region is known.
func (r Region) Valid() bool {
	for _, known := range Regions {
		if r == known {
			return true
		}
	}
	return false
}

// ShippingAddress is copied by value into an order and never changed there.
type ShippingAddress struct {
	RecipientName string `json:"fullName" validate:"required,max=100"`
	Phone         string `json:"phone" validate:"required,phone"`
	Street        string `json:"address" validate:"required,max=200"`
	City          string `json:"city" validate:"required,max=100"`
	PostalCode    string `json:"postalCode" validate:"required,numeric,len=4"`
	Region        Region `json:"region" validate:"required,region"`
	Notes         string `json:"notes,omitempty" validate:"max=500"`
}

// Normalize trims user input.
func (a ShippingAddress) Normalize() ShippingAddress {
	a.RecipientName = strings.TrimSpace(a.RecipientName)
	a.Phone = strings.ReplaceAll(strings.TrimSpace(a.Phone), " ", "")
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Region = Region(strings.ToLower(strings.TrimSpace(string(a.Region))))
	a.Notes = strings.TrimSpace(a.Notes)
	return a
}

// Validate returns a ValidationError listing malformed fields.
func (a ShippingAddress) Validate() error {
	return validateStruct(a)
}

var phonePattern = regexp.MustCompile(`^(?:\+?88)?01[3-9]\d{8}$`)

// ValidPhone reports whether phone is a local mobile number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("region", func(fl validator.FieldLevel) bool {
		return Region(fl.Field().String()).Valid()
	})
	return v
}

func validateStruct(s any) error {
	err := structValidator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	result := &domainErrors.ValidationError{}
	for _, fe := range fieldErrs {
		result.Add(fe.Field(), fieldMessage(fe))
	}
	return result
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "phone":
		return "must be a valid mobile number"
	case "region":
		return "must be a supported region"
	case "numeric":
		return "must contain digits only"
	case "len":
		return "must be " + fe.Param() + " characters long"
	case "max":
		return "must be at most " + fe.Param() + " characters long"
	case "min":
		return "must be at least " + fe.Param() + " characters long"
	case "alphanum":
		return "must contain letters and digits only"
	default:
		return "is invalid"
	}
}
