package api

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed game_request.schema.json
var gameRequestSchemaJSON string

// ErrInvalidPayload wraps every decode or schema failure.
var ErrInvalidPayload = errors.New("invalid payload")

// MaxBodyBytes bounds how much of a request body is read.
const MaxBodyBytes = 1 << 20

var gameRequestSchema = jsonschema.MustCompileString("game_request.schema.json", gameRequestSchemaJSON)

// ParseGameRequest reads, validates and decodes an engine payload.
func ParseGameRequest(r io.Reader) (*GameRequest, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return DecodeGameRequest(raw)
}

// DecodeGameRequest validates raw against the request schema before decoding
// it, so required fields are checked once here instead of in the engine.
func DecodeGameRequest(raw []byte) (*GameRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := gameRequestSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var req GameRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &req, nil
}
