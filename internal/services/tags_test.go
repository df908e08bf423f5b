package services

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/recipekeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTag(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner, err := s.accounts.CreateUser(ctx, "test@example.com", "testpass123")
	require.NoError(t, err)

	tag, err := s.tags.Create(ctx, owner.ID, "Tag1")
	require.NoError(t, err)
	assert.Equal(t, tag.Name, tag.String())
	assert.Equal(t, "Tag1", tag.String())
	assert.Equal(t, owner.ID, tag.UserID)
}

func TestCreateTag_Failures(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.tags.Create(ctx, "missing", "Tag1")
	assert.ErrorIs(t, err, common.ErrorInvalidReference)

	owner, err := s.accounts.CreateUser(ctx, "t@example.com", "pw")
	require.NoError(t, err)

	_, err = s.tags.Create(ctx, owner.ID, "")
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = s.tags.Create(ctx, owner.ID, strings.Repeat("x", 256))
	assert.ErrorIs(t, err, common.ErrorValidation)

	assert.Zero(t, s.count(t, "tags"))
}

func TestListRenameDeleteTags(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner, err := s.accounts.CreateUser(ctx, "l@example.com", "pw")
	require.NoError(t, err)
	other, err := s.accounts.CreateUser(ctx, "m@example.com", "pw")
	require.NoError(t, err)

	lunch, err := s.tags.Create(ctx, owner.ID, "Lunch")
	require.NoError(t, err)
	_, err = s.tags.Create(ctx, owner.ID, "Breakfast")
	require.NoError(t, err)
	_, err = s.tags.Create(ctx, other.ID, "Alien")
	require.NoError(t, err)

	list, err := s.tags.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Breakfast", list[0].Name)
	assert.Equal(t, "Lunch", list[1].Name)

	require.NoError(t, s.tags.Rename(ctx, owner.ID, lunch.ID, "Brunch"))
	assert.ErrorIs(t, s.tags.Rename(ctx, owner.ID, lunch.ID, " "), common.ErrorValidation)
	assert.ErrorIs(t, s.tags.Rename(ctx, other.ID, lunch.ID, "Mine now"), common.ErrorNotFound)

	list, err = s.tags.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brunch", list[1].Name)

	assert.ErrorIs(t, s.tags.Delete(ctx, other.ID, lunch.ID), common.ErrorNotFound)
	require.NoError(t, s.tags.Delete(ctx, owner.ID, lunch.ID))

	list, err = s.tags.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
