// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the HTTPS client for OpenAI-compatible chat
// completion endpoints such as Cerebras.
//
// One call to Client.Complete issues exactly one POST. It never retries.
// The reply text is extracted by a Decoder chosen once from configuration,
// so providers with different response shapes are handled without any
// runtime inspection of the body.
//
// # Key Types
//
//   - Client: HTTP client for the completion endpoint
//   - Params: static per-call request parameters (model, temperature, ...)
//   - ChatRequest / ChatMessage: the JSON request body
//   - Decoder / PathDecoder: reply extraction strategies
//   - Error: tagged failure (configuration, transport, protocol, decode)
//
// # Usage
//
//	dec, _ := cloud.DecoderForSchema("chat", "")
//	client := cloud.NewClient(cloud.DefaultEndpoint, dec)
//	reply, err := client.Complete(ctx, apiKey, cloud.DefaultParams(),
//	    []cloud.ChatMessage{cloud.NewUserMessage("Hello!")})
//	if errors.Is(err, cloud.ErrProtocol) {
//	    // non-2xx; err carries the status and raw body
//	}
//
// # Security
//
// The credential is only ever placed in the Authorization header. It is
// never logged; a short SHA-256 fingerprint is logged instead.
package cloud
