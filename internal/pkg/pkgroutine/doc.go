// Package pkgroutine runs named background tasks with a concurrency limit.
//
// Panics inside a task are recovered and reported as ErrPanic through Wait,
// so a failing import or consumer never takes the process down.
package pkgroutine
