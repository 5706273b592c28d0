// Package validate checks user input before it is sent to the backend.
package validate

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MaxUploadSize is the largest lecture file accepted for upload.
const MaxUploadSize = 50 << 20

var ErrInvalid = errors.New("invalid input")

// allowedExtensions are the lecture file types the summarizer accepts.
var allowedExtensions = map[string]bool{".pdf": true, ".docx": true, ".pptx": true}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Errors maps a field to a user-readable message. It matches ErrInvalid.
type Errors map[string]string

func (e Errors) Error() string {
	names := make([]string, 0, len(e))
	for k := range e {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool {
	return target == ErrInvalid
}

// Struct validates a tagged input model.
func Struct(in any) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validating input: %w", err)
	}

	out := Errors{}
	for _, fe := range ve {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = message(fe)
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	field := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		if fe.Field() == "password_confirm" {
			return "Please confirm your password"
		}
		return field + " is required"
	case "required_with":
		return "Please confirm your password"
	case "email":
		return "Invalid email format"
	case "numeric":
		return field + " must contain digits only"
	case "max":
		if fe.Field() == "phone" {
			return "Phone must be 1-10 digits"
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "eqfield":
		return "Passwords do not match"
	default:
		return field + " is invalid"
	}
}

// humanize turns "course_name" into "Course name".
func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// LectureName checks a lecture name for upload or rename.
func LectureName(name string) error {
	if strings.TrimSpace(name) == "" {
		return Errors{"lecture_name": "Lecture name is required"}
	}
	return nil
}

// Upload checks the lecture name and the file about to be uploaded.
func Upload(name, filename string, size int64) error {
	errs := Errors{}
	if strings.TrimSpace(name) == "" {
		errs["lecture_name"] = "Lecture name is required"
	}
	switch {
	case !allowedExtensions[strings.ToLower(filepath.Ext(filename))]:
		errs["file"] = "Only PDF, Word (.docx), and PowerPoint (.pptx) files are allowed"
	case size > MaxUploadSize:
		errs["file"] = "File size must be less than 50MB"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DefaultLectureName derives a lecture name from a file name by dropping the
// directory and the extension.
func DefaultLectureName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ID checks a course or lecture identifier. The backend issues either UUIDs
// or positive integers.
func ID(kind, id string) error {
	if id == "" {
		return Errors{kind: humanize(kind) + " is required"}
	}
	if _, err := uuid.Parse(id); err == nil {
		return nil
	}
	if n, err := strconv.ParseUint(id, 10, 64); err == nil && n > 0 {
		return nil
	}
	return Errors{kind: fmt.Sprintf("%q is not a valid %s", id, strings.ReplaceAll(kind, "_", " "))}
}
