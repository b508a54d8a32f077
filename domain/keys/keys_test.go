package keys

import (
	"testing"

	apperrors "chatapi/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		id    string
		owner string
		want  Key
	}{
		{"user", KindUser, "u1", "", Key{PK: "USER", SK: "USER#u1"}},
		{"topic", KindTopic, "t1", "u1", Key{PK: "USER#u1", SK: "TOPIC#t1"}},
		{"message", KindMessage, "m1", "t1", Key{PK: "TOPIC#t1", SK: "MESSAGE#m1"}},
		{"tag", KindTag, "g1", "", Key{PK: "TAG", SK: "TAG#g1"}},
		{"category", KindCategory, "c1", "", Key{PK: "CATEGORY", SK: "CATEGORY#c1"}},
		{"prompt", KindPrompt, "p1", "u1", Key{PK: "USER#u1", SK: "PROMPT#p1"}},
		{"global kind ignores owner", KindTag, "g1", "u9", Key{PK: "TAG", SK: "TAG#g1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := For(tt.kind, tt.id, tt.owner)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForRejectsMissingContext(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		id    string
		owner string
	}{
		{"topic without owner", KindTopic, "t1", ""},
		{"prompt without owner", KindPrompt, "p1", "  "},
		{"message without topic", KindMessage, "m1", ""},
		{"empty id", KindTag, "", ""},
		{"id with separator", KindUser, "a#b", ""},
		{"owner with separator", KindTopic, "t1", "u#1"},
		{"unknown kind", Kind(99), "x", "y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := For(tt.kind, tt.id, tt.owner)
			require.Error(t, err)
			assert.True(t, apperrors.IsInvalidKey(err))
		})
	}
}

func TestSortPrefixAndParse(t *testing.T) {
	assert.Equal(t, "MESSAGE#", SortPrefix(KindMessage))

	kind, id, err := ParseSortKey("TOPIC#01920000-aaaa")
	require.NoError(t, err)
	assert.Equal(t, KindTopic, kind)
	assert.Equal(t, "01920000-aaaa", id)

	_, _, err = ParseSortKey("NOPE")
	assert.True(t, apperrors.IsInvalidKey(err))
	_, _, err = ParseSortKey("WIDGET#1")
	assert.True(t, apperrors.IsInvalidKey(err))
}

func TestEmailIndexKeyLowercases(t *testing.T) {
	assert.Equal(t, "USER#ada@example.com", EmailIndexKey(" Ada@Example.COM "))
}

func TestOwnerFromPartition(t *testing.T) {
	owner, ok := OwnerFromPartition("USER#u1")
	assert.True(t, ok)
	assert.Equal(t, "u1", owner)

	_, ok = OwnerFromPartition("TAG")
	assert.False(t, ok)
}

func TestKindMetadata(t *testing.T) {
	assert.Equal(t, "CATEGORY", KindCategory.String())
	assert.True(t, KindMessage.OwnerScoped())
	assert.False(t, KindUser.OwnerScoped())
}
