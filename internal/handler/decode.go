package handler

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"geocatalog/internal/dto"
	"geocatalog/internal/model"
	"geocatalog/internal/validation"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling file parts to disk.
const multipartMemory = 8 << 20

// bodyKind is the request body encoding.
type bodyKind int

const (
	bodyJSON bodyKind = iota
	bodyMultipart
	bodyURLEncoded
)

func kindOf(r *http.Request) bodyKind {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		return bodyMultipart
	case "application/x-www-form-urlencoded":
		return bodyURLEncoded
	default:
		return bodyJSON
	}
}

// decodeJSON reads a JSON object body into v.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return malformed(err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return malformed(err)
	}
	return nil
}

// parseForm parses a multipart or urlencoded body into r.PostForm.
func parseForm(r *http.Request) error {
	var err error
	if kindOf(r) == bodyMultipart {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return malformed(err)
	}
	return nil
}

// decodeCredentials fills dst from a JSON or form body with username, password
// and email fields.
func decodeCredentials(r *http.Request, dst *dto.CredentialsRequest) error {
	if kindOf(r) == bodyJSON {
		return decodeJSON(r, dst)
	}
	if err := parseForm(r); err != nil {
		return err
	}
	dst.Username = r.PostFormValue("username")
	dst.Password = r.PostFormValue("password")
	dst.Email = r.PostFormValue("email")
	return nil
}

// decodeEntity reads an entity payload. The returned file is the uploaded
// image, or nil; the caller closes it.
func decodeEntity(r *http.Request) (dto.EntityInput, multipart.File, error) {
	var in dto.EntityInput

	if kindOf(r) == bodyJSON {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return in, nil, malformed(err)
		}
		if err := json.Unmarshal(body, &in); err != nil {
			return in, nil, malformed(err)
		}
		var keys map[string]any
		if err := json.Unmarshal(body, &keys); err != nil {
			return in, nil, malformed(err)
		}
		_, in.PropertiesSet = keys["properties"]
		return in, nil, nil
	}

	if err := parseForm(r); err != nil {
		return in, nil, err
	}

	verr := &validation.RequestValidationError{}
	if vals, ok := r.PostForm["title"]; ok && len(vals) > 0 {
		title := vals[0]
		in.Title = &title
	}
	in.Lat = formFloat(r, "lat", verr)
	in.Lon = formFloat(r, "lon", verr)

	if vals, ok := r.PostForm["properties"]; ok && len(vals) > 0 {
		in.PropertiesSet = true
		props, err := model.ParseProperties([]byte(strings.TrimSpace(vals[0])))
		switch {
		case errors.Is(err, model.ErrPropertiesNotObject):
			verr.Errors = append(verr.Errors, validation.FieldError{Field: "properties", Tag: "json", Message: MsgNotJSONObject})
		case err != nil:
			verr.Errors = append(verr.Errors, validation.FieldError{Field: "properties", Tag: "json", Message: "Value must be valid JSON."})
		case props != nil:
			in.Properties = map[string]any(props)
		}
	}

	if len(verr.Errors) > 0 {
		return in, nil, verr
	}

	if kindOf(r) != bodyMultipart {
		return in, nil, nil
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return in, nil, nil
		}
		return in, nil, malformed(err)
	}
	return in, file, nil
}

func formFloat(r *http.Request, field string, verr *validation.RequestValidationError) *float64 {
	vals, ok := r.PostForm[field]
	if !ok || len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
	if err != nil {
		verr.Errors = append(verr.Errors, validation.FieldError{Field: field, Tag: "number", Message: "A valid number is required."})
		return nil
	}
	return &v
}
