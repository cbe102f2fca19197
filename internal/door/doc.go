// Package door is the device-behavior core of the pet door emulation.
//
// It contains the state model (motion phases, safety settings,
// schedules, battery, counters), the transition engine that advances
// door motion on a timer, the pure sensor-safety policy evaluator, and
// the SQLite-backed store for durable state.
//
// Concurrency model: the Engine's event loop is the single owner of all
// mutable state. The timer tick and every external request enqueue onto
// the same loop, so no two mutations ever interleave. Listeners run
// synchronously on the loop in causal order and must not block.
package door
