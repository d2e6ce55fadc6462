package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/zvms-dev/zvms-api/internal/dto"
	"github.com/zvms-dev/zvms-api/internal/models"
)

func trophyFixture() (TrophyService, *fakeTrophyRepo) {
	repo := &fakeTrophyRepo{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewTrophyService(repo, validate, testLogger()), repo
}

func trophyCreatePayload() dto.TrophyCreateRequest {
	return dto.TrophyCreateRequest{
		Name:     "Provincial Math Olympiad",
		Kind:     models.TrophyAcademic,
		Level:    models.LevelProvince,
		Deadline: time.Now().Add(30 * 24 * time.Hour),
		Time:     time.Now(),
		Awards: []dto.TrophyAwardRequest{
			{Name: "first", Duration: 5.0},
			{Name: "second", Duration: 3.0},
		},
	}
}

func TestCreateTrophyRolePolicy(t *testing.T) {
	svc, _ := trophyFixture()

	secretary := models.User{ID: 3, Roles: []string{"secretary"}}
	resp, err := svc.Create(context.Background(), trophyCreatePayload(), secretary)
	require.NoError(t, err)
	require.Equal(t, models.TrophyPending, resp.Status)

	department := models.User{ID: 4, Roles: []string{"department"}}
	resp, err = svc.Create(context.Background(), trophyCreatePayload(), department)
	require.NoError(t, err)
	require.Equal(t, models.TrophyEffective, resp.Status)

	_, err = svc.Create(context.Background(), trophyCreatePayload(), student(7))
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCreateTrophyRequiresAwards(t *testing.T) {
	svc, _ := trophyFixture()

	payload := trophyCreatePayload()
	payload.Awards = nil

	_, err := svc.Create(context.Background(), payload, auditor(2))
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
}

func TestAddMemberUnknownAward(t *testing.T) {
	svc, repo := trophyFixture()
	repo.trophies = []models.Trophy{
		{ID: 1, Name: "Chess Cup", Status: models.TrophyEffective, Awards: []models.TrophyAward{{Name: "first", Duration: 5.0}}},
	}

	_, err := svc.AddMember(context.Background(), 1, dto.TrophyMemberAddRequest{
		UserID:    7,
		AwardName: "grand",
		Mode:      models.CategoryOnCampus,
	}, student(7))
	require.ErrorIs(t, err, ErrUnknownAward)
}

func TestAddMemberStartsPending(t *testing.T) {
	svc, repo := trophyFixture()
	repo.trophies = []models.Trophy{
		{ID: 1, Name: "Chess Cup", Status: models.TrophyEffective, Awards: []models.TrophyAward{{Name: "first", Duration: 5.0}}},
	}

	resp, err := svc.AddMember(context.Background(), 1, dto.TrophyMemberAddRequest{
		UserID:    7,
		AwardName: "first",
		Mode:      models.CategoryOnCampus,
	}, student(7))
	require.NoError(t, err)
	require.Equal(t, models.TrophyPending, resp.Status)

	// The same user cannot be enrolled twice.
	_, err = svc.AddMember(context.Background(), 1, dto.TrophyMemberAddRequest{
		UserID:    7,
		AwardName: "first",
		Mode:      models.CategoryOnCampus,
	}, student(7))
	require.ErrorIs(t, err, ErrAlreadyMember)
}

func TestAddMemberForOtherUserNeedsRole(t *testing.T) {
	svc, repo := trophyFixture()
	repo.trophies = []models.Trophy{
		{ID: 1, Name: "Chess Cup", Status: models.TrophyEffective, Awards: []models.TrophyAward{{Name: "first", Duration: 5.0}}},
	}

	payload := dto.TrophyMemberAddRequest{UserID: 9, AwardName: "first", Mode: models.CategoryOffCampus}

	_, err := svc.AddMember(context.Background(), 1, payload, student(7))
	require.ErrorIs(t, err, ErrPermissionDenied)

	secretary := models.User{ID: 3, Roles: []string{"secretary"}}
	_, err = svc.AddMember(context.Background(), 1, payload, secretary)
	require.NoError(t, err)
}

func TestDeleteTrophyOwnership(t *testing.T) {
	svc, repo := trophyFixture()
	repo.trophies = []models.Trophy{
		{ID: 1, Name: "Chess Cup", Status: models.TrophyPending, CreatorID: 3},
	}

	err := svc.Delete(context.Background(), 1, student(7))
	require.ErrorIs(t, err, ErrPermissionDenied)

	creator := models.User{ID: 3, Roles: []string{"secretary"}}
	require.NoError(t, svc.Delete(context.Background(), 1, creator))
	require.Empty(t, repo.trophies)
}
