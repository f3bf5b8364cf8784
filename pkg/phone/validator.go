package phone

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers written without a country code.
const DefaultRegion = "US"

// PhoneType represents the type of phone number.
type PhoneType string

const (
	TypeFixedLine         PhoneType = "FIXED_LINE"
	TypeMobile            PhoneType = "MOBILE"
	TypeFixedLineOrMobile PhoneType = "FIXED_LINE_OR_MOBILE"
	TypeTollFree          PhoneType = "TOLL_FREE"
	TypeVoip              PhoneType = "VOIP"
	TypeUnknown           PhoneType = "UNKNOWN"
)

// ValidationResult contains the result of phone number validation.
type ValidationResult struct {
	IsValid             bool      `json:"is_valid"`
	E164Format          string    `json:"e164_format"`
	InternationalFormat string    `json:"international_format"`
	NationalFormat      string    `json:"national_format"`
	CountryCode         string    `json:"country_code"`
	PhoneType           PhoneType `json:"phone_type"`
}

// ValidatePhone parses phone and reports whether it is a dialable number.
// A parse failure is an error; a well-formed but unassigned number is a result with IsValid false.
func ValidatePhone(phone, region string) (*ValidationResult, error) {
	parsed, err := parse(phone, region)
	if err != nil {
		return nil, err
	}

	return &ValidationResult{
		IsValid:             phonenumbers.IsValidNumber(parsed),
		E164Format:          phonenumbers.Format(parsed, phonenumbers.E164),
		InternationalFormat: phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL),
		NationalFormat:      phonenumbers.Format(parsed, phonenumbers.NATIONAL),
		CountryCode:         phonenumbers.GetRegionCodeForNumber(parsed),
		PhoneType:           typeOf(phonenumbers.GetNumberType(parsed)),
	}, nil
}

// NormalizePhone normalizes a phone number to E.164 format.
func NormalizePhone(phone, region string) (string, error) {
	parsed, err := parse(phone, region)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("invalid phone number")
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// IsValid reports whether phone is a valid number in region (or carries its own country code).
func IsValid(phone, region string) bool {
	_, err := NormalizePhone(phone, region)
	return err == nil
}

// RegisterValidation adds the "phone" tag to v.
// Empty values pass so the tag composes with omitempty and required.
func RegisterValidation(v *validator.Validate) error {
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsValid(s, DefaultRegion)
	})
}

func parse(phone, region string) (*phonenumbers.PhoneNumber, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("phone number cannot be empty")
	}
	if region == "" {
		region = DefaultRegion
	}

	parsed, err := phonenumbers.Parse(phone, strings.ToUpper(region))
	if err != nil {
		return nil, fmt.Errorf("failed to parse phone number: %w", err)
	}
	return parsed, nil
}

func typeOf(t phonenumbers.PhoneNumberType) PhoneType {
	switch t {
	case phonenumbers.FIXED_LINE:
		return TypeFixedLine
	case phonenumbers.MOBILE:
		return TypeMobile
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return TypeFixedLineOrMobile
	case phonenumbers.TOLL_FREE:
		return TypeTollFree
	case phonenumbers.VOIP:
		return TypeVoip
	default:
		return TypeUnknown
	}
}
