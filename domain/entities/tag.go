package entities

import "strings"

// Tag is a global label. Topics embed copies of it, so every change must be
// propagated to the topics referencing it.
type Tag struct {
	ID          string `json:"id" dynamodbav:"id"`
	DisplayName string `json:"displayName" dynamodbav:"displayName"`
	Content     string `json:"content,omitempty" dynamodbav:"content,omitempty"`
	CategoryID  string `json:"categoryId,omitempty" dynamodbav:"categoryId,omitempty"`
	Attachments []File `json:"attachments" dynamodbav:"attachments"`
	UserID      string `json:"userId" dynamodbav:"userId"`
	CreatedAt   int64  `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt" dynamodbav:"updatedAt"`
}

func (t *Tag) SearchText() string {
	return strings.ToLower(t.DisplayName + "\n" + t.Content)
}

type TagPatch struct {
	DisplayName *string
	Content     *string
	CategoryID  *string
	Attachments *[]File
	UserID      *string
}

// Apply merges the patch over t and stamps updatedAt. An empty CategoryID
// detaches the tag from its category.
func (t *Tag) Apply(p TagPatch, now int64) {
	if p.DisplayName != nil {
		t.DisplayName = *p.DisplayName
	}
	if p.Content != nil {
		t.Content = *p.Content
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Attachments != nil {
		t.Attachments = append([]File{}, (*p.Attachments)...)
	}
	if p.UserID != nil {
		t.UserID = *p.UserID
	}
	t.UpdatedAt = now
}
