package mock

import "github.com/poiesic/medassist/ai"

// Provider bundles the mock embedder and chat model behind ai.Provider.
type Provider struct {
	embedder *Embedder
	chat     *ChatModel
}

// NewProvider creates a provider backed by deterministic mock models.
func NewProvider() *Provider {
	return &Provider{
		embedder: NewEmbedder(),
		chat:     NewChatModel(),
	}
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *Provider) ChatModel() ai.ChatModel {
	return p.chat
}

// MockEmbedder exposes the concrete embedder for test assertions.
func (p *Provider) MockEmbedder() *Embedder {
	return p.embedder
}

// MockChatModel exposes the concrete chat model for test assertions.
func (p *Provider) MockChatModel() *ChatModel {
	return p.chat
}

func (p *Provider) Close() error {
	return nil
}
