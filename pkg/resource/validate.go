package resource

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"k8s.io/apimachinery/pkg/util/validation"
)

// use a single instance of go-playground/validator Validate, it
// caches struct info
var validate *validator.Validate

var (
	cronFieldPattern = regexp.MustCompile(`^[0-9A-Za-z*?,/\-#]+$`)
	cronDescriptors  = map[string]bool{
		"@yearly": true, "@annually": true, "@monthly": true, "@weekly": true,
		"@daily": true, "@midnight": true, "@hourly": true,
	}
)

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	if err := validate.RegisterValidation("cron", cronValidator); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("k8sname", k8sNameValidator); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("json", jsonValidator); err != nil {
		panic(err)
	}
}

// cronValidator accepts five-field cron expressions, an optional CRON_TZ or
// TZ prefix and the @daily style descriptors.
func cronValidator(fl validator.FieldLevel) bool {
	val, kind, _ := fl.ExtractType(fl.Field())
	if kind != reflect.String {
		return false
	}
	return IsValidCron(val.String())
}

var _ validator.Func = cronValidator

// IsValidCron reports whether expr is a cron schedule accepted by CAST AI
func IsValidCron(expr string) bool {
	fields := strings.Fields(expr)
	if len(fields) > 0 && (strings.HasPrefix(fields[0], "CRON_TZ=") || strings.HasPrefix(fields[0], "TZ=")) {
		fields = fields[1:]
	}
	if len(fields) == 1 {
		return cronDescriptors[fields[0]] || strings.HasPrefix(fields[0], "@every ")
	}
	if len(fields) == 2 && fields[0] == "@every" {
		return fields[1] != ""
	}
	if len(fields) != 5 {
		return false
	}
	for _, f := range fields {
		if !cronFieldPattern.MatchString(f) {
			return false
		}
	}
	return true
}

func k8sNameValidator(fl validator.FieldLevel) bool {
	val, kind, _ := fl.ExtractType(fl.Field())
	if kind != reflect.String {
		return false
	}
	return len(validation.IsDNS1123Subdomain(val.String())) == 0
}

var _ validator.Func = k8sNameValidator

func jsonValidator(fl validator.FieldLevel) bool {
	val, kind, _ := fl.ExtractType(fl.Field())
	if kind != reflect.String {
		return false
	}
	return json.Valid([]byte(val.String()))
}

var _ validator.Func = jsonValidator

// Validate checks the struct tags of args. Failures are returned as a
// *ValidationError naming the offending camelCase fields.
func Validate(token, name string, args any) error {
	if args == nil || isNilPointer(args) {
		return &ValidationError{Token: token, Name: name, Fields: []FieldError{{Field: "args", Tag: "required"}}}
	}
	err := validate.Struct(args)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field: trimStructName(fe.Namespace()),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return &ValidationError{Token: token, Name: name, Fields: fields}
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// trimStructName drops the leading type name of a validator namespace
func trimStructName(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
