// Package gemini provides an implementation of the generation.Generator
// interface that uses Google's Gemini API for generating flashcard
// candidates from source text.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the application's domain logic to Google's external Gemini AI
// service. It translates between the application's candidate model and the
// Gemini API without exposing the details of the external service to the
// core application.
//
// Each generation request is a single API call bounded by the caller's
// context; there is no internal retry. Transient failures (timeouts, rate
// limits) and permanent ones (safety blocks, malformed responses) map to
// the sentinel errors in the generation package so callers can distinguish
// them.
package gemini
