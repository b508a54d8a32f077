package entities

import "strings"

// Topic is a conversation thread owned by one user. Tags holds a
// denormalized snapshot of the tags listed in TagIDs, in the same order.
type Topic struct {
	ID            string   `json:"id" dynamodbav:"id"`
	UserID        string   `json:"userId" dynamodbav:"userId"`
	Name          string   `json:"name" dynamodbav:"name"`
	Description   string   `json:"description,omitempty" dynamodbav:"description,omitempty"`
	AITitle       string   `json:"aiTitle,omitempty" dynamodbav:"aiTitle,omitempty"`
	TagIDs        []string `json:"tagIds" dynamodbav:"tagIds"`
	Tags          []Tag    `json:"tags" dynamodbav:"tags"`
	Pinned        bool     `json:"pinned" dynamodbav:"pinned"`
	PinnedAt      *int64   `json:"pinnedAt,omitempty" dynamodbav:"pinnedAt,omitempty"`
	LastMessageAt int64    `json:"lastMessageAt" dynamodbav:"lastMessageAt"`
	CreatedAt     int64    `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt     int64    `json:"updatedAt" dynamodbav:"updatedAt"`
}

// SearchText is the lowercased text matched by topic search.
func (t *Topic) SearchText() string {
	return strings.ToLower(t.Name + "\n" + t.Description)
}

// HasTag reports whether tagID is referenced by the topic.
func (t *Topic) HasTag(tagID string) bool {
	for _, id := range t.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// RemoveTag drops tagID from both TagIDs and the snapshot. It reports
// whether anything changed.
func (t *Topic) RemoveTag(tagID string) bool {
	changed := false
	ids := t.TagIDs[:0:0]
	for _, id := range t.TagIDs {
		if id == tagID {
			changed = true
			continue
		}
		ids = append(ids, id)
	}
	tags := t.Tags[:0:0]
	for _, tag := range t.Tags {
		if tag.ID == tagID {
			changed = true
			continue
		}
		tags = append(tags, tag)
	}
	t.TagIDs = ids
	t.Tags = tags
	return changed
}

// ReplaceTag swaps the snapshot entry for tag.ID with tag. Missing snapshot
// entries for a referenced id are re-added in TagIDs order.
func (t *Topic) ReplaceTag(tag Tag) bool {
	if !t.HasTag(tag.ID) {
		return false
	}
	byID := make(map[string]Tag, len(t.Tags))
	for _, existing := range t.Tags {
		byID[existing.ID] = existing
	}
	byID[tag.ID] = tag

	tags := make([]Tag, 0, len(t.TagIDs))
	for _, id := range t.TagIDs {
		if snap, ok := byID[id]; ok {
			tags = append(tags, snap)
		}
	}
	t.Tags = tags
	return true
}

// TopicPatch carries the fields of a partial topic update. Tags must be set
// whenever TagIDs is.
type TopicPatch struct {
	Name          *string
	Description   *string
	AITitle       *string
	TagIDs        *[]string
	Tags          *[]Tag
	Pinned        *bool
	LastMessageAt *int64
}

// Apply merges the patch over t and stamps updatedAt. Pinning sets pinnedAt
// to now; unpinning clears it.
func (t *Topic) Apply(p TopicPatch, now int64) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.AITitle != nil {
		t.AITitle = *p.AITitle
	}
	if p.TagIDs != nil {
		t.TagIDs = append([]string{}, (*p.TagIDs)...)
	}
	if p.Tags != nil {
		t.Tags = append([]Tag{}, (*p.Tags)...)
	}
	if p.Pinned != nil {
		t.Pinned = *p.Pinned
		if t.Pinned {
			at := now
			t.PinnedAt = &at
		} else {
			t.PinnedAt = nil
		}
	}
	if p.LastMessageAt != nil {
		t.LastMessageAt = *p.LastMessageAt
	}
	t.UpdatedAt = now
}
