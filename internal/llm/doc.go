// Package llm provides text generation clients for hosted language models.
//
// # Providers
//
// OpenAIClient speaks the OpenAI-compatible /chat/completions protocol and is
// used for both Groq and OpenAI. AnthropicClient speaks the Messages API.
// Every client implements Provider so the generation orchestrator can run
// them as an ordered chain.
//
// # Failure Semantics
//
// Clients do not retry. A missing API key returns provider.ErrMissingCredential
// before any network call, non-2xx responses return *provider.StatusError, and
// a reply without text returns provider.ErrEmptyOutput. Retry and failover are
// the chain runner's job.
//
// # JSON Output
//
// DecodeJSON tolerates models that wrap JSON in markdown fences or prose.
package llm
