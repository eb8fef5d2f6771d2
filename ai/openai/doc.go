// Package openai implements the ai interfaces against OpenAI-compatible
// APIs via langchaingo. Works with any server speaking the OpenAI protocol:
// Ollama, LocalAI, vLLM, or OpenAI itself.
package openai
