// Package chat answers user questions by retrieving relevant indexed
// documents, composing them with the thread's conversation history,
// and asking the chat model for a reply.
//
// The orchestrator never returns an error to the caller: every failure
// path yields a user-facing reply string, with details going to the
// log. Each answered question appends exactly two turns to the thread,
// the contextualized user turn and the assistant reply.
package chat
