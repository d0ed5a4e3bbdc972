// Package actions defines the closed set of calendar actions the
// assistant model may request, together with their argument schemas
// and the natural-language descriptions the model consumes.
//
// The set of actions is a compile-time constant: adding or removing an
// action means adding or removing a Kind value and its catalog entry,
// and every dispatch site switches exhaustively over Kind.
package actions
