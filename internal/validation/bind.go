package validation

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/pkg/response"
)

// BindJSON decodes the request body into dst. On failure it writes a 400 and returns false:
// validation_error listing every failing field when the body is well-formed JSON with
// mistyped values, otherwise invalid_request_body.
func BindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindBodyWith(dst, binding.JSON)
	if err == nil {
		return true
	}
	var body []byte
	if v, ok := c.Get(gin.BodyBytesKey); ok {
		body, _ = v.([]byte)
	}
	if ve := FromBody(body, dst, err); ve != nil {
		response.ValidationFailed(c, ve.Fields)
		return false
	}
	response.BadRequest(c, "invalid request body")
	return false
}

// FromBody expands a decoding error into the full list of failing fields: every mistyped
// value in body, followed by the `validate` failures of the fields that did decode into dst.
// It returns nil when err is not a per-field type error.
func FromBody(body []byte, dst any, err error) *apperr.ValidationError {
	first := FromBindError(err)
	if first == nil {
		return nil
	}
	out := &apperr.ValidationError{Fields: TypeErrors(body, dst)}
	if len(out.Fields) == 0 {
		out.Fields = first.Fields
	}
	seen := make(map[string]bool, len(out.Fields))
	for _, f := range out.Fields {
		seen[f.Field] = true
	}
	var rest *apperr.ValidationError
	if errors.As(Struct(dst), &rest) {
		for _, f := range rest.Fields {
			if !seen[f.Field] {
				out.Fields = append(out.Fields, f)
			}
		}
	}
	return out
}
