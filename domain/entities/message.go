package entities

// MessageRole is the author of a message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Valid reports whether r is a known role.
func (r MessageRole) Valid() bool {
	return r == MessageRoleUser || r == MessageRoleAssistant
}

// File is an attachment stored in object storage.
type File struct {
	ID          string `json:"id" dynamodbav:"id"`
	Filename    string `json:"filename" dynamodbav:"filename"`
	Content     string `json:"content,omitempty" dynamodbav:"content,omitempty"`
	ContentType string `json:"contentType,omitempty" dynamodbav:"contentType,omitempty"`
}

// Source is a document cited by an assistant answer.
type Source struct {
	ID       string `json:"id" dynamodbav:"id"`
	Filename string `json:"filename" dynamodbav:"filename"`
	Content  string `json:"content,omitempty" dynamodbav:"content,omitempty"`
}

// Message belongs to a topic. Ids are time ordered, so sort-key order is
// conversation order.
type Message struct {
	ID               string      `json:"id" dynamodbav:"id"`
	TopicID          string      `json:"topicId" dynamodbav:"topicId"`
	UserID           string      `json:"userId" dynamodbav:"userId"`
	Role             MessageRole `json:"role" dynamodbav:"role"`
	Content          string      `json:"content" dynamodbav:"content"`
	Files            []File      `json:"files" dynamodbav:"files"`
	Model            string      `json:"model,omitempty" dynamodbav:"model,omitempty"`
	SourceDocuments  []Source    `json:"sourceDocuments" dynamodbav:"sourceDocuments"`
	LocalStatusError bool        `json:"localStatusError,omitempty" dynamodbav:"localStatusError,omitempty"`
	CreatedAt        int64       `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt        int64       `json:"updatedAt" dynamodbav:"updatedAt"`
}

type MessagePatch struct {
	Content          *string
	Files            *[]File
	Model            *string
	SourceDocuments  *[]Source
	LocalStatusError *bool
}

// Apply merges the patch over m and stamps updatedAt.
func (m *Message) Apply(p MessagePatch, now int64) {
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.Files != nil {
		m.Files = append([]File{}, (*p.Files)...)
	}
	if p.Model != nil {
		m.Model = *p.Model
	}
	if p.SourceDocuments != nil {
		m.SourceDocuments = append([]Source{}, (*p.SourceDocuments)...)
	}
	if p.LocalStatusError != nil {
		m.LocalStatusError = *p.LocalStatusError
	}
	m.UpdatedAt = now
}
