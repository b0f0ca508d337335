package api

import (
	"encoding/json" // JSON decoding errors
	"errors"        // Error inspection
	"fmt"           // Message formatting
	"reflect"       // Field tag lookup
	"strconv"       // Parameter parsing
	"strings"       // String manipulation
	"sync"          // One-time validator setup

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/gin-gonic/gin/binding"       // Gin binding engine
	"github.com/go-playground/validator/v10" // Struct validation

	"store_rating/internal/domain" // Error taxonomy
	"store_rating/internal/utils"  // Password policy
)

const passwordRule = "must be 8-16 characters with at least one uppercase letter and one special character (" + utils.PasswordSpecials + ")"

var setupValidator sync.Once

// RegisterValidators teaches gin's validator the password tag and makes it report JSON field names
func RegisterValidators() {
	setupValidator.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return utils.IsValidPassword(fl.Field().String())
		})
	})
}

// bindJSON decodes and validates the request body, reporting every failing field
func bindJSON(c *gin.Context, req any) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := &domain.ValidationError{}
		for _, fe := range verrs {
			out.Add(fe.Field(), fieldMessage(fe))
		}
		return out
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return domain.NewValidationError(typeErr.Field, "must be a "+typeErr.Type.String())
	}
	return domain.NewValidationError("body", "malformed JSON body")
}

func fieldMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "must be a valid email address"
	case "password":
		return "password " + passwordRule
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

// paramID parses a positive numeric path parameter
func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.NewValidationError(name, name+" must be a positive integer")
	}
	return uint(id), nil
}

// queryInt reads a positive integer query parameter, falling back to def
func queryInt(c *gin.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil && v > 0 {
		return v
	}
	return def
}
