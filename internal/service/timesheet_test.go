package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zvms-dev/zvms-api/internal/models"
)

func timesheetFixture(activities *fakeActivityRepo, trophies *fakeTrophyRepo) TimesheetService {
	users := &fakeUserRepo{users: []models.User{
		{ID: 1, StudentID: 20230001, Name: "Chen", Roles: []string{"student"}},
	}}
	return NewTimesheetService(users, activities, trophies, testLogger())
}

func prizeActivity(id uint) models.Activity {
	return models.Activity{ID: id, Kind: models.ActivitySpecial, Classify: models.ClassifyPrize, Status: models.ActivityEffective}
}

func TestComputePrizeThenTrophyClampsAtQuota(t *testing.T) {
	activities := &fakeActivityRepo{
		activities: []models.Activity{prizeActivity(1)},
		members: []models.ActivityMember{
			{ID: 1, ActivityID: 1, UserID: 1, Status: models.MemberEffective, Mode: models.CategoryOnCampus, Duration: 7.0},
		},
	}
	trophies := &fakeTrophyRepo{
		trophies: []models.Trophy{
			{ID: 1, Status: models.TrophyEffective, Awards: []models.TrophyAward{{Name: "first", Duration: 5.0}}},
		},
		members: []models.TrophyMember{
			{ID: 1, TrophyID: 1, UserID: 1, AwardName: "first", Mode: models.CategoryOnCampus, Status: models.TrophyEffective},
		},
	}

	summary, err := timesheetFixture(activities, trophies).Compute(context.Background(), 1, DefaultAccrualConfig())
	require.NoError(t, err)
	require.Equal(t, 10.0, summary.OnCampus)
	require.Equal(t, 0.0, summary.OffCampus)
	require.Equal(t, 10.0, summary.Award)
	require.Equal(t, 10.0, summary.Total)
}

func TestComputeNormalActivityUsesParentDuration(t *testing.T) {
	activities := &fakeActivityRepo{
		activities: []models.Activity{
			{ID: 1, Kind: models.ActivitySpecified, Duration: 2.5, Status: models.ActivityEffective},
		},
		members: []models.ActivityMember{
			{ID: 1, ActivityID: 1, UserID: 1, Status: models.MemberEffective, Mode: models.CategoryOffCampus, Duration: 0},
		},
	}

	summary, err := timesheetFixture(activities, &fakeTrophyRepo{}).Compute(context.Background(), 1, DefaultAccrualConfig())
	require.NoError(t, err)
	require.Equal(t, 0.0, summary.OnCampus)
	require.Equal(t, 2.5, summary.OffCampus)
	require.Equal(t, 0.0, summary.SocialPractice)
	require.Equal(t, 0.0, summary.Award)
	require.Equal(t, 2.5, summary.Total)
}

func TestComputePrizeOverflowRebalancesProportionally(t *testing.T) {
	activities := &fakeActivityRepo{
		activities: []models.Activity{prizeActivity(1), prizeActivity(2)},
		members: []models.ActivityMember{
			{ID: 1, ActivityID: 1, UserID: 1, Status: models.MemberEffective, Mode: models.CategoryOnCampus, Duration: 8.0},
			{ID: 2, ActivityID: 2, UserID: 1, Status: models.MemberEffective, Mode: models.CategoryOffCampus, Duration: 4.0},
		},
	}
	// Trophy entries must be skipped once prize entries alone fill the quota.
	trophies := &fakeTrophyRepo{
		trophies: []models.Trophy{
			{ID: 1, Status: models.TrophyEffective, Awards: []models.TrophyAward{{Name: "first", Duration: 9.0}}},
		},
		members: []models.TrophyMember{
			{ID: 1, TrophyID: 1, UserID: 1, AwardName: "first", Mode: models.CategoryOnCampus, Status: models.TrophyEffective},
		},
	}

	summary, err := timesheetFixture(activities, trophies).Compute(context.Background(), 1, DefaultAccrualConfig())
	require.NoError(t, err)
	// 8/12 of the quota rounds to 6.7; the remainder lands off-campus.
	require.Equal(t, 6.7, summary.OnCampus)
	require.Equal(t, 3.3, summary.OffCampus)
	require.Equal(t, 10.0, summary.Award)
	require.Equal(t, 10.0, summary.Total)
}

func TestComputeTrophyClampEndsPhase(t *testing.T) {
	trophies := &fakeTrophyRepo{
		trophies: []models.Trophy{
			{ID: 1, Status: models.TrophyEffective, Awards: []models.TrophyAward{{Name: "first", Duration: 8.0}}},
			{ID: 2, Status: models.TrophyEffective, Awards: []models.TrophyAward{{Name: "second", Duration: 5.0}}},
			{ID: 3, Status: models.TrophyEffective, Awards: []models.TrophyAward{{Name: "third", Duration: 1.0}}},
		},
		members: []models.TrophyMember{
			{ID: 1, TrophyID: 1, UserID: 1, AwardName: "first", Mode: models.CategoryOnCampus, Status: models.TrophyEffective},
			{ID: 2, TrophyID: 2, UserID: 1, AwardName: "second", Mode: models.CategoryOffCampus, Status: models.TrophyEffective},
			{ID: 3, TrophyID: 3, UserID: 1, AwardName: "third", Mode: models.CategoryOnCampus, Status: models.TrophyEffective},
		},
	}

	summary, err := timesheetFixture(&fakeActivityRepo{}, trophies).Compute(context.Background(), 1, DefaultAccrualConfig())
	require.NoError(t, err)
	// The second entry clamps to 2.0 and fills the quota; the third entry is
	// never considered even though it would fit on its own.
	require.Equal(t, 8.0, summary.OnCampus)
	require.Equal(t, 2.0, summary.OffCampus)
	require.Equal(t, 10.0, summary.Award)
}

func TestComputeAwardNeverExceedsQuota(t *testing.T) {
	activities := &fakeActivityRepo{
		activities: []models.Activity{prizeActivity(1)},
		members: []models.ActivityMember{
			{ID: 1, ActivityID: 1, UserID: 1, Status: models.MemberEffective, Mode: models.CategoryOnCampus, Duration: 50.0},
		},
	}
	trophies := &fakeTrophyRepo{
		trophies: []models.Trophy{
			{ID: 1, Status: models.TrophyEffective, Awards: []models.TrophyAward{{Name: "first", Duration: 40.0}}},
		},
		members: []models.TrophyMember{
			{ID: 1, TrophyID: 1, UserID: 1, AwardName: "first", Mode: models.CategoryOffCampus, Status: models.TrophyEffective},
		},
	}

	cfg := DefaultAccrualConfig()
	summary, err := timesheetFixture(activities, trophies).Compute(context.Background(), 1, cfg)
	require.NoError(t, err)
	require.LessOrEqual(t, summary.Award, cfg.PrizeQuota)
	require.LessOrEqual(t, summary.OnCampus+summary.OffCampus, cfg.PrizeQuota)
}

func TestComputeDiscountBelowCap(t *testing.T) {
	activities := &fakeActivityRepo{
		activities: []models.Activity{
			{ID: 1, Kind: models.ActivitySpecified, Duration: 40.0, Status: models.ActivityEffective},
		},
		members: []models.ActivityMember{
			{ID: 1, ActivityID: 1, UserID: 1, Status: models.MemberEffective, Mode: models.CategoryOnCampus},
		},
	}

	cfg := DefaultAccrualConfig()
	cfg.Discount = true
	summary, err := timesheetFixture(activities, &fakeTrophyRepo{}).Compute(context.Background(), 1, cfg)
	require.NoError(t, err)
	require.Equal(t, 40.0, summary.OnCampus)
	require.Equal(t, 3.3, summary.OffCampus)
	require.Equal(t, 43.3, summary.Total)
}

func TestComputeDiscountClampsAtCap(t *testing.T) {
	activities := &fakeActivityRepo{
		activities: []models.Activity{
			{ID: 1, Kind: models.ActivitySpecified, Duration: 60.0, Status: models.ActivityEffective},
		},
		members: []models.ActivityMember{
			{ID: 1, ActivityID: 1, UserID: 1, Status: models.MemberEffective, Mode: models.CategoryOnCampus},
		},
	}

	cfg := DefaultAccrualConfig()
	cfg.Discount = true
	summary, err := timesheetFixture(activities, &fakeTrophyRepo{}).Compute(context.Background(), 1, cfg)
	require.NoError(t, err)
	require.Equal(t, 60.0, summary.OnCampus)
	require.Equal(t, cfg.DiscountCap, summary.OffCampus)
}

func TestComputeDiscountInactiveBelowBase(t *testing.T) {
	activities := &fakeActivityRepo{
		activities: []models.Activity{
			{ID: 1, Kind: models.ActivitySpecified, Duration: 30.0, Status: models.ActivityEffective},
		},
		members: []models.ActivityMember{
			{ID: 1, ActivityID: 1, UserID: 1, Status: models.MemberEffective, Mode: models.CategoryOnCampus},
		},
	}

	cfg := DefaultAccrualConfig()
	cfg.Discount = true
	summary, err := timesheetFixture(activities, &fakeTrophyRepo{}).Compute(context.Background(), 1, cfg)
	require.NoError(t, err)
	require.Equal(t, 0.0, summary.OffCampus)
}

func TestComputeIgnoresNonEffectiveRecords(t *testing.T) {
	activities := &fakeActivityRepo{
		activities: []models.Activity{
			{ID: 1, Kind: models.ActivitySpecified, Duration: 4.0, Status: models.ActivityEffective},
		},
		members: []models.ActivityMember{
			{ID: 1, ActivityID: 1, UserID: 1, Status: models.MemberPending, Mode: models.CategoryOnCampus},
		},
	}
	trophies := &fakeTrophyRepo{
		trophies: []models.Trophy{
			{ID: 1, Status: models.TrophyEffective, Awards: []models.TrophyAward{{Name: "first", Duration: 5.0}}},
		},
		members: []models.TrophyMember{
			{ID: 1, TrophyID: 1, UserID: 1, AwardName: "first", Mode: models.CategoryOnCampus, Status: models.TrophyPending},
		},
	}

	summary, err := timesheetFixture(activities, trophies).Compute(context.Background(), 1, DefaultAccrualConfig())
	require.NoError(t, err)
	require.Equal(t, 0.0, summary.Total)
}

func TestComputeIsIdempotent(t *testing.T) {
	activities := &fakeActivityRepo{
		activities: []models.Activity{
			prizeActivity(1),
			{ID: 2, Kind: models.ActivitySocial, Duration: 3.0, Status: models.ActivityEffective},
		},
		members: []models.ActivityMember{
			{ID: 1, ActivityID: 1, UserID: 1, Status: models.MemberEffective, Mode: models.CategoryOnCampus, Duration: 4.0},
			{ID: 2, ActivityID: 2, UserID: 1, Status: models.MemberEffective, Mode: models.CategorySocialPractice},
		},
	}

	svc := timesheetFixture(activities, &fakeTrophyRepo{})
	first, err := svc.Compute(context.Background(), 1, DefaultAccrualConfig())
	require.NoError(t, err)
	second, err := svc.Compute(context.Background(), 1, DefaultAccrualConfig())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestComputeUnknownUser(t *testing.T) {
	svc := timesheetFixture(&fakeActivityRepo{}, &fakeTrophyRepo{})
	_, err := svc.Compute(context.Background(), 99, DefaultAccrualConfig())
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestComputeNegativeDurationAborts(t *testing.T) {
	activities := &fakeActivityRepo{
		activities: []models.Activity{prizeActivity(1)},
		members: []models.ActivityMember{
			{ID: 1, ActivityID: 1, UserID: 1, Status: models.MemberEffective, Mode: models.CategoryOnCampus, Duration: -2.0},
		},
	}

	_, err := timesheetFixture(activities, &fakeTrophyRepo{}).Compute(context.Background(), 1, DefaultAccrualConfig())
	require.ErrorIs(t, err, ErrDataIntegrity)
}

func TestComputeUnknownCategoryAborts(t *testing.T) {
	activities := &fakeActivityRepo{
		activities: []models.Activity{
			{ID: 1, Kind: models.ActivitySpecified, Duration: 1.0, Status: models.ActivityEffective},
		},
		members: []models.ActivityMember{
			{ID: 1, ActivityID: 1, UserID: 1, Status: models.MemberEffective, Mode: models.Category("weekend")},
		},
	}

	_, err := timesheetFixture(activities, &fakeTrophyRepo{}).Compute(context.Background(), 1, DefaultAccrualConfig())
	require.ErrorIs(t, err, ErrDataIntegrity)
}

func TestComputeDanglingTierAborts(t *testing.T) {
	trophies := &fakeTrophyRepo{
		trophies: []models.Trophy{
			{ID: 1, Status: models.TrophyEffective, Awards: []models.TrophyAward{{Name: "first", Duration: 5.0}}},
		},
		members: []models.TrophyMember{
			{ID: 1, TrophyID: 1, UserID: 1, AwardName: "grand", Mode: models.CategoryOnCampus, Status: models.TrophyEffective},
		},
	}

	_, err := timesheetFixture(&fakeActivityRepo{}, trophies).Compute(context.Background(), 1, DefaultAccrualConfig())
	require.ErrorIs(t, err, ErrDataIntegrity)
}

func TestComputeStoreTimeoutSurfacesUnavailable(t *testing.T) {
	activities := &fakeActivityRepo{err: context.DeadlineExceeded}

	_, err := timesheetFixture(activities, &fakeTrophyRepo{}).Compute(context.Background(), 1, DefaultAccrualConfig())
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRound1HalfAwayFromZero(t *testing.T) {
	require.Equal(t, 3.3, round1(10.0/3.0))
	require.Equal(t, 0.1, round1(0.05))
	require.Equal(t, -0.1, round1(-0.05))
	require.Equal(t, 2.5, round1(2.5))
}
