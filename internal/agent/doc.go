// Package agent drives the conversational turn: it alternates between
// asking the model what to do next and executing the actions the model
// requested, until the model produces a final answer.
//
// One call to Loop.ProcessMessage is one turn. The incoming user
// message is persisted before the first model invocation; the final
// answer is persisted after the loop terminates; the tool observations
// exchanged in between live only inside the turn, so conversation
// history grows by exactly two rows per human-visible exchange no
// matter how many tool calls happened.
//
// Turns for the same conversation are serialized by a per-conversation
// mutex; nothing escapes ProcessMessage as an error — the user always
// receives a reply.
package agent
