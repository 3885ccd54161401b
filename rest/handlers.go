package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/paularlott/toon-mcp/convert"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// encodeRequest carries the payload; the encode options sit beside it at
// the top level and are decoded separately.
type encodeRequest struct {
	JSON json.RawMessage `json:"json"`
}

type encodeResponse struct {
	TOON string `json:"toon"`
}

type decodeRequest struct {
	TOON         *string `json:"toon"`
	OutputFormat string  `json:"output_format,omitempty"`
	convert.DecodeOptionsInput
}

type decodeResponse struct {
	JSON any `json:"json"`
}

type validateRequest struct {
	TOON   *string `json:"toon"`
	Strict *bool   `json:"strict,omitempty"`
}

type statsRequest struct {
	JSON          json.RawMessage            `json:"json"`
	EncodeOptions convert.EncodeOptionsInput `json:"encode_options"`
}

func (rt *routes) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: rt.version})
}

func (rt *routes) encode(w http.ResponseWriter, r *http.Request) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	var req encodeRequest
	if err := unmarshalBody(body, &req); err != nil {
		return err
	}
	var opts convert.EncodeOptionsInput
	if err := unmarshalBody(body, &opts); err != nil {
		return err
	}
	payload, err := requiredPayload(req.JSON)
	if err != nil {
		return err
	}

	out, err := convert.Encode(payload, opts)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, encodeResponse{TOON: out})
	return nil
}

func (rt *routes) decode(w http.ResponseWriter, r *http.Request) error {
	var req decodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	if req.TOON == nil {
		return badRequest("toon field is required")
	}

	value, err := convert.Decode(*req.TOON, req.DecodeOptionsInput)
	if err != nil {
		return err
	}

	// Pretty output is returned as text so the indentation survives.
	if convert.ParseOutputFormat(req.OutputFormat) == convert.OutputJSONPretty {
		text, err := convert.FormatJSON(value, convert.OutputJSONPretty)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, decodeResponse{JSON: text})
		return nil
	}

	text, err := convert.FormatJSON(value, convert.OutputJSON)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, decodeResponse{JSON: json.RawMessage(text)})
	return nil
}

func (rt *routes) validate(w http.ResponseWriter, r *http.Request) error {
	var req validateRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	if req.TOON == nil {
		return badRequest("toon field is required")
	}

	writeJSON(w, http.StatusOK, convert.Validate(*req.TOON, req.Strict))
	return nil
}

func (rt *routes) stats(w http.ResponseWriter, r *http.Request) error {
	var req statsRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	payload, err := requiredPayload(req.JSON)
	if err != nil {
		return err
	}

	result, err := convert.ComputeStats(payload, req.EncodeOptions)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, result)
	return nil
}

// decodeBody reads a JSON request body keeping numbers exact.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	return unmarshalBody(body, dst)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, badRequest("invalid request body: %v", err)
	}
	return body, nil
}

func unmarshalBody(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// requiredPayload decodes the json field. A missing field is an error; an
// explicit null is a valid payload.
func requiredPayload(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, badRequest("json field is required")
	}
	var v any
	if err := unmarshalBody(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
