package chat

import (
	"github.com/poiesic/medassist/core"
	"github.com/poiesic/medassist/index"
)

// Monitor provides hooks to observe the answer process.
// Implement this interface to track intermediate steps while a question
// is being answered.
type Monitor interface {
	Start(threadID, question string)
	AfterRetrieval(matches []index.Match)
	BeforeGeneration(turns []core.Turn)
	Finish(reply string)
	Fail(err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)              {}
func (n *noopMonitor) AfterRetrieval(_ []index.Match) {}
func (n *noopMonitor) BeforeGeneration(_ []core.Turn) {}
func (n *noopMonitor) Finish(_ string)                {}
func (n *noopMonitor) Fail(_ error)                   {}
