package flushq

import "errors"

// ErrExecutorClosed is returned by Submit after Stop.
var ErrExecutorClosed = errors.New("flushq: executor closed")

// ErrQueueFull is returned by Submit when the queue has no space within the
// enqueue timeout.
var ErrQueueFull = errors.New("flushq: queue full")
