// Package events defines the typed event contract emitted by a voice
// service client during a call.
//
// Event kinds are grouped by namespace:
//
//   - call.*: call lifecycle boundaries reported by the remote service.
//   - speech.*: assistant speech activity, used for UI speaking indicators.
//   - transcript.*: speech-to-text results; partial events are interim
//     guesses the service may still revise, final events are committed
//     utterances that will not change.
//   - stream.*: transport or service faults.
//
// Semantics used across the package:
//
//   - Final: a transcript the upstream service will not revise further.
//     Only final transcripts become part of a session's record.
//   - Partial: an interim transcript snapshot; consumers that only care
//     about the committed record drop these.
//
// Events are immutable after construction and carry the wall-clock time at
// which they were created.
package events
