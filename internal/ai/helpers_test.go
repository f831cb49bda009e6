package ai

import (
	"encoding/json"
	"net/http"
)

func decodeJSON(req *http.Request, v any) error {
	defer req.Body.Close()
	return json.NewDecoder(req.Body).Decode(v)
}
