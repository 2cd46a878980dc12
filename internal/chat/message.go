package chat

// Role tags a conversational message with its author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable entry in a conversation.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

func System(text string) Message    { return Message{Role: RoleSystem, Text: text} }
func User(text string) Message      { return Message{Role: RoleUser, Text: text} }
func Assistant(text string) Message { return Message{Role: RoleAssistant, Text: text} }
