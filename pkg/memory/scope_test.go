package memory

import "testing"

func TestResolveScopesIsolatesChatsAndUsers(t *testing.T) {
	a := ResolveScopes("whatsapp", "chat-1", "user-1", "ws")
	b := ResolveScopes("whatsapp", "chat-2", "user-1", "ws")
	if a.Chat == b.Chat {
		t.Fatalf("expected distinct chat scopes, both got %q", a.Chat)
	}
	if a.User != b.User {
		t.Fatalf("expected same user scope across chats for the same sender, got %q vs %q", a.User, b.User)
	}
	if a.Global != b.Global {
		t.Fatalf("expected same global scope within a workspace, got %q vs %q", a.Global, b.Global)
	}
}

func TestResolveScopesFallsBackToChatIDWithoutSender(t *testing.T) {
	s := ResolveScopes("cli", "chat-1", "", "ws")
	want := "channel:cli:user:chat-1"
	if s.User != want {
		t.Fatalf("User = %q, want %q", s.User, want)
	}
}

func TestDefaultScopeFor(t *testing.T) {
	scopes := Scopes{Chat: "chat", User: "user", Global: "global"}
	cases := []struct {
		kind Kind
		want string
	}{
		{KindPreference, "user"},
		{KindFact, "user"},
		{KindDecision, "chat"},
		{KindEpisodic, "chat"},
	}
	for _, c := range cases {
		if got := DefaultScopeFor(c.kind, scopes); got != c.want {
			t.Fatalf("DefaultScopeFor(%s) = %q, want %q", c.kind, got, c.want)
		}
	}
}

func TestManualScopeKindResolve(t *testing.T) {
	scopes := Scopes{Chat: "chat", User: "user", Global: "global"}
	cases := []struct {
		kind ManualScopeKind
		want string
	}{
		{ManualScopeChat, "chat"},
		{ManualScopeUser, "user"},
		{ManualScopeGlobal, "global"},
	}
	for _, c := range cases {
		if got := c.kind.Resolve(scopes); got != c.want {
			t.Fatalf("%s.Resolve() = %q, want %q", c.kind, got, c.want)
		}
	}
}
