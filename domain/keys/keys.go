// Package keys derives the partition and sort keys of every stored entity.
//
// The layout is the only format shared with anything reading the table
// directly, so repositories and the cascade coordinator never build keys
// inline.
//
//	User      PK=USER              SK=USER#<id>
//	Topic     PK=USER#<ownerId>    SK=TOPIC#<id>
//	Message   PK=TOPIC#<topicId>   SK=MESSAGE#<id>
//	Tag       PK=TAG               SK=TAG#<id>
//	Category  PK=CATEGORY          SK=CATEGORY#<id>
//	Prompt    PK=USER#<ownerId>    SK=PROMPT#<id>
package keys

import (
	"fmt"
	"strings"

	apperrors "chatapi/pkg/errors"
)

// Kind identifies an entity type stored in the table.
type Kind int

const (
	KindUser Kind = iota + 1
	KindTopic
	KindMessage
	KindTag
	KindCategory
	KindPrompt
)

const separator = "#"

// Attribute names shared by every document.
const (
	AttrPK         = "PK"
	AttrSK         = "SK"
	AttrEntityType = "EntityType"
	AttrGSI1PK     = "GSI1PK"
	AttrGSI1SK     = "GSI1SK"
)

// EmailIndex is the secondary index holding USER#<email> lookups.
const EmailIndex = "GSI1"

type kindSpec struct {
	name      string
	sortTag   string
	partition string // fixed partition for global kinds
	ownerTag  string // owner partition tag for owner-scoped kinds
}

var kinds = map[Kind]kindSpec{
	KindUser:     {name: "USER", sortTag: "USER", partition: "USER"},
	KindTopic:    {name: "TOPIC", sortTag: "TOPIC", ownerTag: "USER"},
	KindMessage:  {name: "MESSAGE", sortTag: "MESSAGE", ownerTag: "TOPIC"},
	KindTag:      {name: "TAG", sortTag: "TAG", partition: "TAG"},
	KindCategory: {name: "CATEGORY", sortTag: "CATEGORY", partition: "CATEGORY"},
	KindPrompt:   {name: "PROMPT", sortTag: "PROMPT", ownerTag: "USER"},
}

// String returns the discriminator stored in EntityType.
func (k Kind) String() string {
	if s, ok := kinds[k]; ok {
		return s.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// OwnerScoped reports whether the kind lives in its owner's partition.
func (k Kind) OwnerScoped() bool {
	return kinds[k].ownerTag != ""
}

// Key is the composite identity of a document.
type Key struct {
	PK string
	SK string
}

// For returns the key of entity id of the given kind. ownerID is the owning
// user for topics and prompts, the owning topic for messages, and ignored
// for global kinds.
func For(kind Kind, id, ownerID string) (Key, error) {
	if strings.TrimSpace(id) == "" {
		return Key{}, apperrors.NewInvalidKeyError(fmt.Sprintf("%s key requires an id", kind))
	}
	if strings.Contains(id, separator) {
		return Key{}, apperrors.NewInvalidKeyError(fmt.Sprintf("%s id must not contain %q", kind, separator))
	}
	pk, err := Partition(kind, ownerID)
	if err != nil {
		return Key{}, err
	}
	return Key{PK: pk, SK: kinds[kind].sortTag + separator + id}, nil
}

// Partition returns the partition key that holds every entity of kind for
// the given owner.
func Partition(kind Kind, ownerID string) (string, error) {
	s, ok := kinds[kind]
	if !ok {
		return "", apperrors.NewInvalidKeyError(fmt.Sprintf("unknown entity kind %d", int(kind)))
	}
	if s.ownerTag == "" {
		return s.partition, nil
	}
	if strings.TrimSpace(ownerID) == "" {
		return "", apperrors.NewInvalidKeyError(fmt.Sprintf("%s key requires an owner", kind))
	}
	if strings.Contains(ownerID, separator) {
		return "", apperrors.NewInvalidKeyError(fmt.Sprintf("%s owner must not contain %q", kind, separator))
	}
	return s.ownerTag + separator + ownerID, nil
}

// SortPrefix is the begins_with prefix selecting every entity of kind
// inside a partition.
func SortPrefix(kind Kind) string {
	return kinds[kind].sortTag + separator
}

// EmailIndexKey is the GSI1 partition value for a user's email. The address
// is lowercased so lookups are case-insensitive.
func EmailIndexKey(email string) string {
	return "USER" + separator + strings.ToLower(strings.TrimSpace(email))
}

// ParseSortKey splits a sort key back into its kind and id.
func ParseSortKey(sk string) (Kind, string, error) {
	tag, id, ok := strings.Cut(sk, separator)
	if !ok || id == "" {
		return 0, "", apperrors.NewInvalidKeyError(fmt.Sprintf("malformed sort key %q", sk))
	}
	for k, s := range kinds {
		if s.sortTag == tag {
			return k, id, nil
		}
	}
	return 0, "", apperrors.NewInvalidKeyError(fmt.Sprintf("unknown sort key tag %q", tag))
}

// OwnerFromPartition extracts the owner id from an owner-scoped partition
// key such as USER#<id> or TOPIC#<id>.
func OwnerFromPartition(pk string) (string, bool) {
	_, owner, ok := strings.Cut(pk, separator)
	if !ok || owner == "" {
		return "", false
	}
	return owner, true
}
