package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate = validator.New()

	// PSX symbols are short uppercase tickers, e.g. ENGRO, LUCK, SYS.
	symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)
)

// ValidationError represents a validation error with field and message
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

func init() {
	validate.RegisterValidation("symbol", validateSymbol)
	validate.RegisterValidation("price", validatePrice)
	validate.RegisterValidation("tradedate", validateTradeDate)
	validate.RegisterValidation("horizon", validateHorizon)
}

// validateSymbol validates ticker symbol format
func validateSymbol(fl validator.FieldLevel) bool {
	symbol, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return symbolPattern.MatchString(symbol)
}

// validatePrice validates price is positive and reasonable
func validatePrice(fl validator.FieldLevel) bool {
	price, ok := fl.Field().Interface().(float64)
	if !ok {
		return false
	}
	return price > 0 && price < 1000000
}

// validateTradeDate validates a YYYY-MM-DD date string
func validateTradeDate(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// validateHorizon validates the prediction horizon in days
func validateHorizon(fl validator.FieldLevel) bool {
	switch fl.Field().Interface() {
	case 1, 7, 30:
		return true
	}
	return false
}

// ValidateStruct validates a struct using tags
func ValidateStruct(s interface{}) ValidationErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errors ValidationErrors
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		tag := err.Tag()
		value := err.Value()

		errors = append(errors, ValidationError{
			Field:   field,
			Message: getErrorMessage(field, tag, value),
			Value:   value,
		})
	}

	return errors
}

// getErrorMessage returns a user-friendly error message
func getErrorMessage(field, tag string, value interface{}) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "symbol":
		return fmt.Sprintf("%s must be a valid ticker symbol (1-10 uppercase letters/numbers)", field)
	case "price":
		return fmt.Sprintf("%s must be a positive price less than 1,000,000", field)
	case "tradedate":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD form", field)
	case "horizon":
		return fmt.Sprintf("%s must be a prediction horizon of 1, 7 or 30 days", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %v", field, value)
	case "max":
		return fmt.Sprintf("%s must be at most %v", field, value)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}

// SanitizeSymbol upper-cases and trims a user-entered symbol.
func SanitizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// SanitizeString removes control characters and trims whitespace.
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
