package entities

import "strings"

// Category groups tags. Deleting one deletes its tags first.
type Category struct {
	ID          string `json:"id" dynamodbav:"id"`
	Title       string `json:"title" dynamodbav:"title"`
	Description string `json:"description,omitempty" dynamodbav:"description,omitempty"`
	UserID      string `json:"userId" dynamodbav:"userId"`
	CreatedAt   int64  `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt" dynamodbav:"updatedAt"`
}

func (c *Category) SearchText() string {
	return strings.ToLower(c.Title + "\n" + c.Description)
}

type CategoryPatch struct {
	Title       *string
	Description *string
	UserID      *string
}

func (c *Category) Apply(p CategoryPatch, now int64) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.UserID != nil {
		c.UserID = *p.UserID
	}
	c.UpdatedAt = now
}
