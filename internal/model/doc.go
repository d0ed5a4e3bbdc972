// Package model abstracts the language-model inference call: messages
// in, either a final answer or a list of requested actions out.
//
// The Client interface is the seam the agent loop depends on; the
// OpenAI-compatible implementation in this package works against any
// chat-completions endpoint that supports function calling (OpenAI,
// Groq, and compatible gateways).
package model
