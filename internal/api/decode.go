package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/stine-ri/wings-of-memory/internal/api/validate"
	"github.com/stine-ri/wings-of-memory/internal/model"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body into dst and runs its validate tags. An
// empty body is allowed when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return model.NewValidationError("body", "invalid JSON")
		}
	}
	return validate.Struct(dst)
}
