// Package httpjson writes and reads the JSON bodies the API speaks.
//
// Mutating endpoints reply with the success envelope ({"success":true,...} or
// {"success":false,"message":...}); read endpoints reply with plain documents
// or arrays.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrEmptyBody is returned by Decode when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// maxBodyBytes caps request bodies; form posts in this API are small.
const maxBodyBytes = 1 << 20

// Write sends v as JSON with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK sends v as JSON with 200.
func OK(w http.ResponseWriter, v any) {
	Write(w, http.StatusOK, v)
}

// Success sends {"success":true} merged with any extra fields.
func Success(w http.ResponseWriter, extra map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	Write(w, http.StatusOK, body)
}

// Error sends {"success":false,"message":message} with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, map[string]any{"success": false, "message": message})
}

// Decode reads the request body into dst. Unknown fields are tolerated; the
// clients send whole form states.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}
