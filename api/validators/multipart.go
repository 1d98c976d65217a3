package validators

import (
	"encoding/json"
	"io"
	"net/http"

	pkgerrors "github.com/chiops/fleetops-backend/pkg/errors"
)

// MaxUploadBytes caps the in-memory size of a multipart request.
const MaxUploadBytes = 10 << 20

// FilePart is one uploaded file lifted out of a multipart form.
type FilePart struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DecodeMultipartJSON pulls a JSON document out of the named form field and
// validates it against the struct tags on dest.
func DecodeMultipartJSON(r *http.Request, field string, dest any) error {
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart request")
	}
	raw := r.FormValue(field)
	if raw == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing form field").WithDetails(map[string]any{"field": field})
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"field": field})
	}
	return ValidateStruct(dest)
}

// ReadFilePart reads the named file field into memory. A missing part is
// reported as (nil, nil); callers decide whether the file is mandatory.
func ReadFilePart(r *http.Request, field string) (*FilePart, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid file upload").WithDetails(map[string]any{"field": field})
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to read file upload")
	}
	if len(data) > MaxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file upload too large").WithDetails(map[string]any{"max_bytes": MaxUploadBytes})
	}

	return &FilePart{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
