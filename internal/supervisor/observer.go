package supervisor

// Observer receives engine lifecycle events.
type Observer interface {
	EngineInitialized()
	EngineDiscarded(reason string)
}

// Discard reasons reported to the Observer.
const (
	DiscardTimeout   = "timeout"
	DiscardCancelled = "cancelled"
	DiscardReset     = "reset"
	DiscardClose     = "close"
)

type nopObserver struct{}

func (nopObserver) EngineInitialized()     {}
func (nopObserver) EngineDiscarded(string) {}
