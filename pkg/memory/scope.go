package memory

import "fmt"

// Scopes holds the three resolved isolation boundaries for one
// (channel, chat, sender, workspace) tuple.
type Scopes struct {
	Chat   string
	User   string
	Global string
}

// ResolveScopes is the pure Scope Resolver (C2). It never fails: empty
// identifiers simply fold into the produced key.
func ResolveScopes(channel, chatID, senderID, workspaceID string) Scopes {
	userID := senderID
	if userID == "" {
		userID = chatID
	}
	return Scopes{
		Chat:   fmt.Sprintf("channel:%s:chat:%s", channel, chatID),
		User:   fmt.Sprintf("channel:%s:user:%s", channel, userID),
		Global: fmt.Sprintf("workspace:%s:global", workspaceID),
	}
}

// DefaultScopeFor returns the kind->scope default used by Capture:
// preferences and facts follow the user, decisions and episodic notes
// follow the chat. Manual inserts may override this; extractor output
// may not.
func DefaultScopeFor(kind Kind, scopes Scopes) string {
	switch kind {
	case KindPreference, KindFact:
		return scopes.User
	case KindDecision, KindEpisodic:
		return scopes.Chat
	default:
		return scopes.Chat
	}
}

// ManualScopeKind is the explicit scope a manual insert may request,
// independent of the kind->scope default.
type ManualScopeKind string

const (
	ManualScopeChat   ManualScopeKind = "chat"
	ManualScopeUser   ManualScopeKind = "user"
	ManualScopeGlobal ManualScopeKind = "global"
)

// Resolve picks the concrete scope key for a manual scope request.
func (m ManualScopeKind) Resolve(scopes Scopes) string {
	switch m {
	case ManualScopeUser:
		return scopes.User
	case ManualScopeGlobal:
		return scopes.Global
	default:
		return scopes.Chat
	}
}
