// Package answer implements the downstream answer-generation collaborator:
// a chat-completion client that turns fused retrieval results into a Korean
// natural-language answer with confidence and cited sources, wrapped with a
// circuit breaker and an escalation chain for resilience.
package answer
