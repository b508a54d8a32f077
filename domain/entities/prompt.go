package entities

// Prompt is a saved prompt template owned by one user.
type Prompt struct {
	ID          string `json:"id" dynamodbav:"id"`
	UserID      string `json:"userId" dynamodbav:"userId"`
	Title       string `json:"title" dynamodbav:"title"`
	Description string `json:"description,omitempty" dynamodbav:"description,omitempty"`
	CreatedAt   int64  `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt" dynamodbav:"updatedAt"`
}

type PromptPatch struct {
	Title       *string
	Description *string
}

func (p *Prompt) Apply(patch PromptPatch, now int64) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	p.UpdatedAt = now
}
