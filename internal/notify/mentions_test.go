package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinco/internal/models"
)

func TestExtractMentions(t *testing.T) {
	assert.Nil(t, ExtractMentions("no mentions here"))
	assert.Equal(t, []string{"alice"}, ExtractMentions("hey @alice, look"))
	// дубликаты схлопываются, порядок появления сохраняется
	assert.Equal(t, []string{"bob", "alice"},
		ExtractMentions("@bob and @alice and again @bob"))
	assert.Equal(t, []string{"a.b-c_d"}, ExtractMentions("ping @a.b-c_d!"))
}

type fakeMentionUsers struct {
	active map[string]models.User
}

func (f *fakeMentionUsers) GetActiveByUsernames(_ context.Context, names []string) ([]models.User, error) {
	var out []models.User
	for _, n := range names {
		if u, ok := f.active[n]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func TestResolveMentions(t *testing.T) {
	alice := models.User{Username: "alice", Active: true}
	alice.ID = 1
	users := &fakeMentionUsers{active: map[string]models.User{"alice": alice}}

	// неактивные/неизвестные имена молча выпадают
	got, err := ResolveMentions(context.Background(), users, "cc @alice @ghost")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Username)

	got, err = ResolveMentions(context.Background(), users, "nothing")
	require.NoError(t, err)
	assert.Nil(t, got)
}
