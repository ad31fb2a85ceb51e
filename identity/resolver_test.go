package identity

import (
	"context"
	"testing"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	u := model.User{Username: "resolve-me", Email: "resolve-me@roguelearn.test", PasswordHash: "x"}
	require.NoError(t, db.Create(&u).Error)

	r := NewDBResolver(db)
	id, err := r.ResolveEmail(context.Background(), "resolve-me@roguelearn.test")
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = r.ResolveEmail(context.Background(), "ghost@roguelearn.test")
	assert.ErrorIs(t, err, ErrUnknownEmail)
}
