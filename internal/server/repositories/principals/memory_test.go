package principals

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_CreateAndLookup(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	p, err := repo.Create(ctx, &models.Principal{Username: "Alice", Email: "alice@example.com", PasswordHash: "h", Active: true}, []string{models.RoleCustomer})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.False(t, p.CreatedAt.IsZero())

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byName.ID)
	assert.Empty(t, byName.Roles, "username lookup does not load roles")

	byID, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Role{{Name: models.RoleCustomer, UserType: models.UserTypeEndUser}}, byID.Roles)

	roles, err := repo.GetRoles(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestMemoryRepository_Duplicates(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.Principal{Username: "alice", Email: "a@example.com"}, nil)
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.Principal{Username: "ALICE", Email: "b@example.com"}, nil)
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = repo.Create(ctx, &models.Principal{Username: "bob", Email: "A@example.com"}, nil)
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestMemoryRepository_NotFound(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = repo.Create(ctx, &models.Principal{Username: "x", Email: "x"}, []string{"Wizard"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	p, err := repo.Create(ctx, &models.Principal{Username: "alice", Email: "a", Active: true}, []string{models.RoleCustomer})
	require.NoError(t, err)

	got, _ := repo.GetByID(ctx, p.ID)
	got.Active = false
	got.Roles[0].Name = "Hacked"

	again, _ := repo.GetByID(ctx, p.ID)
	assert.True(t, again.Active)
	assert.Equal(t, models.RoleCustomer, again.Roles[0].Name)
}

func TestMemoryRepository_Mutators(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	p, err := repo.Create(ctx, &models.Principal{Username: "bob", Email: "b", Active: true}, []string{models.RolePartner})
	require.NoError(t, err)

	at := time.Now()
	require.NoError(t, repo.TouchLastLogin(ctx, p.ID, at))
	repo.SetActive(p.ID, false)
	require.NoError(t, repo.SetRoles(p.ID, models.RoleAdmin))
	assert.ErrorIs(t, repo.SetRoles(p.ID, "Wizard"), common.ErrorNotFound)

	got, _ := repo.GetByID(ctx, p.ID)
	assert.False(t, got.Active)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(at))
	assert.True(t, got.HasUserType(models.UserTypeAdmin))
	assert.False(t, got.HasUserType(models.UserTypePartner))
}
