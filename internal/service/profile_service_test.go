package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psgtech-fest/fest-api/internal/models"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
)

func TestUpdateProfileStoresMobile(t *testing.T) {
	profile := completeProfile("uid-1", "25MX114")
	profile.Mobile = nil
	svc := NewProfileService(newMemProfiles(profile), nil, nil)

	updated, err := svc.UpdateProfile(context.Background(), "uid-1", models.UpdateProfileRequest{Mobile: " 9876543210 ", Name: strPtr("Kavin M")})
	require.NoError(t, err)
	assert.Equal(t, "9876543210", *updated.Mobile)
	assert.Equal(t, "Kavin M", updated.Name)
	assert.True(t, updated.Complete())
}

func TestUpdateProfileRejectsInvalidMobile(t *testing.T) {
	svc := NewProfileService(newMemProfiles(completeProfile("uid-1", "25MX114")), nil, nil)

	for _, mobile := range []string{"5123456789", "98765", "98765432100", "98765abcde"} {
		_, err := svc.UpdateProfile(context.Background(), "uid-1", models.UpdateProfileRequest{Mobile: mobile})
		requireCode(t, err, appErrors.ErrInvalidMobile.Code)
	}
}

func TestMeMissingProfile(t *testing.T) {
	svc := NewProfileService(newMemProfiles(), nil, nil)
	_, err := svc.Me(context.Background(), "ghost")
	requireCode(t, err, appErrors.ErrNotFound.Code)
}
