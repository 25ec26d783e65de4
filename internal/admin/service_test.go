package admin

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	dErrors "resident-manager/pkg/domain-errors"
	"resident-manager/pkg/platform/sentinel"
)

func staticStore(t *testing.T, username, password string) *StaticCredentialStore {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &StaticCredentialStore{Credential: Credential{
		Username:       username,
		HashedPassword: string(hashed),
	}}
}

func TestVerify(t *testing.T) {
	svc, err := NewService(staticStore(t, "admin", "hunter2III"))
	require.NoError(t, err)

	ctx := context.Background()

	assert.NoError(t, svc.Verify(ctx, "admin", "hunter2III"))

	err = svc.Verify(ctx, "admin", "wrong")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))

	err = svc.Verify(ctx, "intruder", "hunter2III")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestVerifyCorruptStoreIsInternal(t *testing.T) {
	svc, err := NewService(&StaticCredentialStore{
		Err: fmt.Errorf("config table holds 1 admin rows: %w", sentinel.ErrIntegrity),
	})
	require.NoError(t, err)

	err = svc.Verify(context.Background(), "admin", "whatever")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(err),
		"a corrupt store must not masquerade as bad credentials")
}

func TestNewServiceRequiresStore(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}
