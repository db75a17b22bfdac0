// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Named response schemas.
const (
	// SchemaChat is the OpenAI-style body: choices[0].message.content.
	SchemaChat = "chat"
	// SchemaGenerations is the generations body: results[0].generations[0].text.
	SchemaGenerations = "generations"
)

// Decoder extracts the first generated message text from a successful
// response body.
type Decoder interface {
	Decode(body []byte) (string, error)
}

// PathDecoder locates the reply text with a gjson path.
type PathDecoder struct {
	Path string
}

// Decode implements Decoder.
func (d PathDecoder) Decode(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("response is not valid JSON")
	}
	result := gjson.GetBytes(body, d.Path)
	if !result.Exists() {
		return "", fmt.Errorf("field %q not found in response", d.Path)
	}
	if result.Type != gjson.String {
		return "", fmt.Errorf("field %q is %s, want string", d.Path, result.Type)
	}
	return result.String(), nil
}

// schemaPaths maps schema names to their reply paths.
var schemaPaths = map[string]string{
	SchemaChat:        "choices.0.message.content",
	SchemaGenerations: "results.0.generations.0.text",
}

// Schemas returns the known schema names.
func Schemas() []string {
	return []string{SchemaChat, SchemaGenerations}
}

// DecoderForSchema returns the decoder for a deployment. A non-empty path
// overrides the schema. An empty schema means SchemaChat.
func DecoderForSchema(schema, path string) (Decoder, error) {
	if path = strings.TrimSpace(path); path != "" {
		return PathDecoder{Path: path}, nil
	}
	name := strings.ToLower(strings.TrimSpace(schema))
	if name == "" {
		name = SchemaChat
	}
	p, ok := schemaPaths[name]
	if !ok {
		return nil, fmt.Errorf("unknown response schema %q (known: %s)", schema, strings.Join(Schemas(), ", "))
	}
	return PathDecoder{Path: p}, nil
}
