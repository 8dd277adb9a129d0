package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	biomeerrors "biome/internal/errors"
)

// ScanRequest is the body of POST /scan and POST /jobs/scan.
type ScanRequest struct {
	Path string `json:"path" validate:"required"`
}

// OrganizeRequest is the body of POST /organize and POST /jobs/organize.
type OrganizeRequest struct {
	TargetDirectory string `json:"targetDirectory" validate:"required"`
	Strategy        string `json:"strategy" validate:"omitempty,oneof=type category date size"`
	CreateBackup    bool   `json:"createBackup"`
	DryRun          bool   `json:"dryRun"`
}

// CloakRequest is the body of POST /cloak.
type CloakRequest struct {
	Path string `json:"path" validate:"required"`
}

// NodesQuery holds the query parameters of GET /nodes.
type NodesQuery struct {
	Dir      string `json:"dir"`
	Type     string `json:"type" validate:"omitempty,oneof=document image video audio archive code data unknown"`
	Category string `json:"category" validate:"omitempty,oneof=project work personal temporary screenshot general"`
	Tag      string `json:"tag"`
	Limit    int    `json:"limit" validate:"gte=0,lte=100000"`
}

type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{v: v}
}

// Struct validates dst and reports field errors as INVALID_ARGUMENT.
func (rv *requestValidator) Struct(dst interface{}) error {
	err := rv.v.Struct(dst)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return biomeerrors.New(biomeerrors.InvalidArgument, err.Error(), nil)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = validationMessage(fe)
	}
	return biomeerrors.New(biomeerrors.InvalidArgument, "validation failed", nil).WithDetails(fields)
}

// Decode reads a JSON body into dst and validates it.
func (rv *requestValidator) Decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return biomeerrors.New(biomeerrors.InvalidArgument, "invalid request body", err)
	}
	return rv.Struct(dst)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
