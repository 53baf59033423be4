// Package events provides the completion-event types and interfaces the
// session controller uses to announce terminated sessions.
//
// Consumers such as achievement or analytics subsystems register handlers
// on an Emitter; they receive the final session results but can never
// influence engine decisions. Handler failures are logged and reported to
// the emitter's caller without affecting session state.
package events
