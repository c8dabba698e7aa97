package lob

// EventHandler receives the committed event sequence of a single command.
// The engine delivers exactly the events that command produced: no
// buffering, no duplication, no loss.
type EventHandler interface {
	HandleEvents(market string, events []Event)
}

type EventHandlerFunc func(market string, events []Event)

func (f EventHandlerFunc) HandleEvents(market string, events []Event) {
	f(market, events)
}
