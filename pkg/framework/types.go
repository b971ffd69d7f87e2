package framework

import (
	"context"
	"time"
)

// Named is implemented by Runnables reporting under a name, see NamedRun.
type Named interface {
	Name() string
}

// Runnable is a background task bound to the lifetime of a Runner or a
// Loop, e.g. the joystick reader or the MQTT connection.
type Runnable interface {
	Run(context.Context) error
}

// RunnableFunc is the func form of Runnable.
type RunnableFunc func(context.Context) error

// Run implements Runnable.
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Message is posted by Runnables and consumed by controllers on the
// next iteration.
type Message interface {
	NewMessage() Message
}

// Controller is invoked once per iteration.
type Controller interface {
	Control(ControlContext) error
}

// Finalizer is implemented by controllers which must run once more
// when the loop exits, e.g. to bring actuators to rest.
type Finalizer interface {
	Finalize(context.Context) error
}

// FinalizerFunc is the func form of Finalizer.
type FinalizerFunc func(context.Context) error

// Finalize implements Finalizer.
func (f FinalizerFunc) Finalize(ctx context.Context) error {
	return f(ctx)
}

// TimeSource provides the time of the current iteration, so all
// controllers see the same clock.
type TimeSource interface {
	Time() time.Time
}

// ControlContext is passed to controllers in each iteration.
type ControlContext interface {
	TimeSource
	// Context is derived from the context the loop runs with.
	Context() context.Context
	PriorityLevel() int
	// Messages holds the messages posted before this iteration started,
	// minus those taken by controllers at higher priority.
	Messages() MessageStore

	LoopControl
}

// PriorityLevels is the number of priority levels, lower runs first.
const PriorityLevels int = 16

// Priority levels
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvSense folds input into state before anything reads it, used by
	// the joystick.
	PrLvSense = PrLvHigh
	// PrLvControl decides and sends robot commands, used by the car.
	PrLvControl = PrLvNormal
	// PrLvAcuate is for controllers acting on decisions made at PrLvControl.
	PrLvAcuate = PrLvLow
	// PrLvPostProc observes the committed state, used by telemetry.
	PrLvPostProc = PrLvIdle - 1
)

// LoopControl is available to controllers through ControlContext and to
// Runnables through LoopCtlFrom.
type LoopControl interface {
	// PostMessage enqueues the message for the next iteration. It's
	// safe to call from any goroutine.
	PostMessage(Message)
	// TriggerNext schedules the next iteration to be executed
	// immediately after the current iteration.
	TriggerNext()
	// Stop requests the loop to exit after the current iteration.
	Stop()
}

// MessageStore holds the messages of an iteration.
type MessageStore interface {
	// ProcessMessages visits messages in posting order. Taken messages
	// are not visible to controllers running later.
	ProcessMessages(MessageProcessor)
}

// MessageProcessor visits messages of a MessageStore.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the visited message.
type MessageProcessingContext interface {
	CurrentMessage() Message
	// MessageTaken removes the message from the store.
	MessageTaken()
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}
