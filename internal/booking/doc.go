// Package booking executes calendar actions against the local
// appointment store and, best-effort, against the user's external
// Google Calendar.
//
// The local store is authoritative: a booking is always saved locally,
// and an external-calendar failure (not connected, network error,
// provider error) degrades to local-only behavior instead of failing
// the action. Every operation returns a human-readable observation
// string and never an error; failure observations carry a fixed
// "Error:" prefix so they are distinguishable from success strings.
package booking
