package domain

// Conversation is the server-owned descriptor of a group chat. The client
// holds a read-only cached copy per page visit; it is never mutated locally.
type Conversation struct {
	ID          string
	DisplayName string
	MemberCount int
	Member      bool
}
