// Package response writes JSON bodies and JSON error replies
package response

import (
	"encoding/json"
	"net/http"
)

// RenderJSON writes v as a JSON body with the given status
func RenderJSON(w http.ResponseWriter, status int, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		RenderInternalError(w)
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}
