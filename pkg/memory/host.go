package memory

import "context"

// The collaborators below are narrow interfaces for host runtime pieces
// this package never implements itself: chat transport, response
// generation, session persistence, admission control. The engine never
// imports a concrete chat bridge or LLM client; a host wires its own
// implementations against these seams. None of the methods are called by
// this package today; they document the integration boundary the
// ResponderLoop is expected to sit behind when it calls Capture/Retrieve
// per turn.

// ChatTransport is the inbound/outbound message surface a host provides.
// The engine only ever sees the Turn values a host extracts from it.
type ChatTransport interface {
	Channel() string
}

// ResponderLoop is the host's LLM invocation and tool loop: the thing that
// actually produces a reply for a turn. The engine sits beside it, not
// inside it. RetrievalResult feeds the loop's prompt, and the loop's
// finished turn feeds Capture, but the engine never drives the loop itself.
type ResponderLoop interface {
	Respond(ctx context.Context, turn Turn) (reply string, err error)
}

// SessionHistory is the host's own conversation log. The engine's WAL is a
// narrow, memory-specific audit trail and is not a replacement for it.
type SessionHistory interface {
	Append(ctx context.Context, sessionKey, role, text string) error
}

// AdmissionGate lets a host veto capture or retrieval for a turn before the
// engine runs its own gates (e.g. a rate limiter or abuse filter upstream
// of capture.MinConfidence/MinImportance).
type AdmissionGate interface {
	Allow(ctx context.Context, turn Turn) bool
}

// HostConfigLoader lets a host supply configuration from somewhere other
// than a json5 file on disk (a remote config service, flags, env vars)
// while still producing the typed Config this package validates.
type HostConfigLoader interface {
	LoadConfig(ctx context.Context) (Config, error)
}

// ReplyContextStore is where a host keeps the "message being replied to"
// text that feeds RetrievalRequest.ReplyToText; the engine has no opinion
// on how replies are threaded.
type ReplyContextStore interface {
	ReplyText(ctx context.Context, channel, chatID, messageID string) (string, error)
}
