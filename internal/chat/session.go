package chat

// Session is the shell's per-process conversational state. The conversation
// id is cleared exactly when the active agent changes or the user starts a
// new conversation; a failed turn never touches it.
type Session struct {
	AgentID        string
	AgentName      string
	ConversationID string
}

func NewSession(defaultAgentID string) Session {
	return Session{AgentID: defaultAgentID, AgentName: defaultAgentID}
}

func (s *Session) SetAgent(id, name string) {
	s.AgentID = id
	s.AgentName = name
	s.ConversationID = ""
}

func (s *Session) NewConversation() {
	s.ConversationID = ""
}

// ObserveConversationID records the id carried by a successful response,
// keeping the current one when the response has none.
func (s *Session) ObserveConversationID(id string) {
	if id != "" {
		s.ConversationID = id
	}
}
