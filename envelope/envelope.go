// Package envelope implements the single-string wire format add-ons exchange
// over the host broadcast primitive:
//
//	{"headers":{"id":"<string>","type":"request"|"response"},"body":{...}}
//
// Encode and Decode are exact inverses for bodies made of plain JSON data.
// Output is compact JSON with no HTML escaping and no trailing newline.
// Object keys are emitted in sorted order, so the encoding of a body is
// deterministic.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	// ErrMalformed reports a payload that is not a well-formed envelope.
	ErrMalformed = errors.New("malformed envelope")
	// ErrEncode reports a body that cannot be serialized.
	ErrEncode = errors.New("envelope encode failed")
)

// Type distinguishes requests from responses.
type Type string

const (
	// TypeRequest marks an envelope that asks a remote listener for a reply.
	TypeRequest Type = "request"
	// TypeResponse marks the reply to a request.
	TypeResponse Type = "response"
)

// Valid reports whether t is one of the two protocol types.
func (t Type) Valid() bool {
	return t == TypeRequest || t == TypeResponse
}

// Headers carry routing metadata.
type Headers struct {
	ID   string `json:"id"`
	Type Type   `json:"type"`
}

// Envelope is the unit of wire transmission.
type Envelope struct {
	Headers Headers        `json:"headers"`
	Body    map[string]any `json:"body"`
}

// Encode serializes headers and body into a wire string.
func Encode(h Headers, body map[string]any) (string, error) {
	if body == nil {
		body = map[string]any{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Envelope{Headers: h, Body: body}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Decode parses a wire string. It validates the envelope shape but not the
// header type value; callers decide what to do with unknown types.
func Decode(raw string) (Envelope, error) {
	if !gjson.Valid(raw) {
		return Envelope{}, fmt.Errorf("%w: invalid json", ErrMalformed)
	}

	root := gjson.Parse(raw)
	if !root.IsObject() {
		return Envelope{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	headers := root.Get("headers")
	if !headers.IsObject() {
		return Envelope{}, fmt.Errorf("%w: missing headers", ErrMalformed)
	}

	id := headers.Get("id")
	if id.Type != gjson.String {
		return Envelope{}, fmt.Errorf("%w: headers.id must be a string", ErrMalformed)
	}

	typ := headers.Get("type")
	if typ.Type != gjson.String {
		return Envelope{}, fmt.Errorf("%w: headers.type must be a string", ErrMalformed)
	}

	env := Envelope{
		Headers: Headers{ID: id.String(), Type: Type(typ.String())},
		Body:    map[string]any{},
	}

	body := root.Get("body")
	switch {
	case !body.Exists() || body.Type == gjson.Null:
	case body.IsObject():
		if err := json.Unmarshal([]byte(body.Raw), &env.Body); err != nil {
			return Envelope{}, fmt.Errorf("%w: body: %v", ErrMalformed, err)
		}
	default:
		return Envelope{}, fmt.Errorf("%w: body must be an object", ErrMalformed)
	}

	return env, nil
}
