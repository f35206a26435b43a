package contracts

// EngineState is the lifecycle phase of the process-wide engine.
type EngineState int32

const (
	StateStarting EngineState = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s EngineState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Sent       uint64 // Messages handed to the sink without error.
	SendErrors uint64 // Messages the sink rejected.
	Dropped    uint64 // Interrupt events discarded because the queue was full.
	ReadErrors uint64 // Encoder pin reads that failed.
	Queued     int    // Events currently waiting in the queue.
}
