package transport

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// PageMeta describes the offset window a list response was cut from.
type PageMeta struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Count int `json:"count"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// WriteJSON serializes payload as the response body.
func WriteJSON(ctx *fasthttp.RequestCtx, status int, payload Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if status == fasthttp.StatusNoContent {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		body = []byte(`{"status":"error","code":"INTERNAL","error":"response encoding failed"}`)
	}
	ctx.SetBody(body)
}

// WriteError writes an error envelope whose code is derived from the status.
func WriteError(ctx *fasthttp.RequestCtx, status int, message string) {
	WriteJSON(ctx, status, NewError(codeForStatus(status), message, nil))
}

func codeForStatus(status int) string {
	switch status {
	case fasthttp.StatusBadRequest:
		return "INVALID"
	case fasthttp.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fasthttp.StatusForbidden:
		return "FORBIDDEN"
	case fasthttp.StatusNotFound:
		return "NOT_FOUND"
	case fasthttp.StatusConflict:
		return "CONFLICT"
	default:
		return "INTERNAL"
	}
}
