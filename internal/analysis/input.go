package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	apperrors "stresscheck/internal/common/errors"
	"stresscheck/internal/common/validation"
	"stresscheck/pkg/registry"
)

var (
	responseSetValidatorOnce sync.Once
	responseSetValidator     *validation.SchemaValidator
	responseSetValidatorErr  error
)

func loadResponseSetValidator() (*validation.SchemaValidator, error) {
	responseSetValidatorOnce.Do(func() {
		reg, err := registry.Default()
		if err != nil {
			responseSetValidatorErr = err
			return
		}
		act, err := reg.FindByTaskType(registry.TaskSaveResponse)
		if err != nil {
			responseSetValidatorErr = err
			return
		}
		responseSetValidator, responseSetValidatorErr = validation.NewSchemaValidator(act.InputSchema)
	})
	return responseSetValidator, responseSetValidatorErr
}

// ParseResponseSet decodes a transcript or request body. An empty body or
// JSON null is INPUT_MISSING; anything that is not an object of strings is
// INPUT_MALFORMED.
func ParseResponseSet(raw []byte) (ResponseSet, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, apperrors.NewInputMissingError("empty body")
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, apperrors.NewInputMalformedError(fmt.Sprintf("invalid JSON: %v", err))
	}
	return ResponseSetFromValue(v)
}

// ResponseSetFromValue converts an already decoded JSON value.
func ResponseSetFromValue(v interface{}) (ResponseSet, error) {
	if v == nil {
		return nil, apperrors.NewInputMissingError("responses are null")
	}

	validator, err := loadResponseSetValidator()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	res, err := validator.Validate(v)
	if err != nil {
		return nil, apperrors.NewInputMalformedError(err.Error())
	}
	if !res.Valid {
		return nil, apperrors.NewInputMalformedError(strings.Join(res.GetErrorMessages(), "; "))
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, apperrors.NewInputMalformedError(fmt.Sprintf("expected object, got %T", v))
	}
	rs := make(ResponseSet, len(obj))
	for k, val := range obj {
		s, ok := val.(string)
		if !ok {
			return nil, apperrors.NewInputMalformedError(fmt.Sprintf("%s: expected string, got %T", k, val))
		}
		rs[k] = s
	}
	return rs, nil
}
