package service

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/zvms-dev/zvms-api/internal/models"
	"github.com/zvms-dev/zvms-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeUserRepo struct {
	users []models.User
	err   error
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	if r.err != nil {
		return models.User{}, r.err
	}
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByStudentID(ctx context.Context, studentID int64) (models.User, error) {
	if r.err != nil {
		return models.User{}, r.err
	}
	for _, user := range r.users {
		if user.StudentID == studentID {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(ctx context.Context) ([]models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.users, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if r.err != nil {
		return r.err
	}
	user.ID = uint(len(r.users) + 1)
	r.users = append(r.users, *user)
	return nil
}

type fakeActivityRepo struct {
	activities []models.Activity
	members    []models.ActivityMember
	err        error
	// casMiss forces the next compare-and-swap to report a lost race.
	casMiss bool
}

func (r *fakeActivityRepo) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	if r.err != nil {
		return models.Activity{}, r.err
	}
	for _, activity := range r.activities {
		if activity.ID == id {
			return activity, nil
		}
	}
	return models.Activity{}, gorm.ErrRecordNotFound
}

func (r *fakeActivityRepo) List(ctx context.Context, filter repository.ActivityFilter) ([]models.Activity, int64, error) {
	if r.err != nil {
		return nil, 0, r.err
	}
	return r.activities, int64(len(r.activities)), nil
}

func (r *fakeActivityRepo) Create(ctx context.Context, activity *models.Activity) error {
	if r.err != nil {
		return r.err
	}
	activity.ID = uint(len(r.activities) + 1)
	r.activities = append(r.activities, *activity)
	return nil
}

func (r *fakeActivityRepo) Update(ctx context.Context, activity *models.Activity) error {
	if r.err != nil {
		return r.err
	}
	for i := range r.activities {
		if r.activities[i].ID == activity.ID {
			r.activities[i] = *activity
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeActivityRepo) UpdateStatus(ctx context.Context, id uint, status models.ActivityStatus) error {
	if r.err != nil {
		return r.err
	}
	for i := range r.activities {
		if r.activities[i].ID == id {
			r.activities[i].Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeActivityRepo) activityFor(member models.ActivityMember) models.Activity {
	for _, activity := range r.activities {
		if activity.ID == member.ActivityID {
			return activity
		}
	}
	return member.Activity
}

func (r *fakeActivityRepo) ListForMember(ctx context.Context, userID uint, filter repository.MemberFilter) ([]models.ActivityMember, error) {
	if r.err != nil {
		return nil, r.err
	}
	matched := make([]models.ActivityMember, 0)
	for _, member := range r.members {
		if member.UserID != userID {
			continue
		}
		activity := r.activityFor(member)
		if filter.Kind != nil && activity.Kind != *filter.Kind {
			continue
		}
		if filter.NotKind != nil && activity.Kind == *filter.NotKind {
			continue
		}
		if filter.Classify != nil && activity.Classify != *filter.Classify {
			continue
		}
		if filter.NotClassify != nil && activity.Classify == *filter.NotClassify {
			continue
		}
		if filter.Status != nil && member.Status != *filter.Status {
			continue
		}
		if filter.From != nil && activity.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !activity.Date.Before(*filter.To) {
			continue
		}
		member.Activity = activity
		matched = append(matched, member)
	}
	return matched, nil
}

func (r *fakeActivityRepo) GetMember(ctx context.Context, activityID, userID uint) (models.ActivityMember, error) {
	if r.err != nil {
		return models.ActivityMember{}, r.err
	}
	for _, member := range r.members {
		if member.ActivityID == activityID && member.UserID == userID {
			return member, nil
		}
	}
	return models.ActivityMember{}, gorm.ErrRecordNotFound
}

func (r *fakeActivityRepo) CountMembers(ctx context.Context, activityID uint) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	var count int64
	for _, member := range r.members {
		if member.ActivityID == activityID {
			count++
		}
	}
	return count, nil
}

func (r *fakeActivityRepo) CreateMember(ctx context.Context, member *models.ActivityMember) error {
	if r.err != nil {
		return r.err
	}
	member.ID = uint(len(r.members) + 1)
	r.members = append(r.members, *member)
	return nil
}

func (r *fakeActivityRepo) UpdateMember(ctx context.Context, member *models.ActivityMember) error {
	if r.err != nil {
		return r.err
	}
	for i := range r.members {
		if r.members[i].ID == member.ID {
			r.members[i] = *member
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeActivityRepo) DeleteMember(ctx context.Context, activityID, userID uint) error {
	if r.err != nil {
		return r.err
	}
	for i := range r.members {
		if r.members[i].ActivityID == activityID && r.members[i].UserID == userID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeActivityRepo) CompareAndSwapMemberStatus(ctx context.Context, member *models.ActivityMember, observed models.MemberStatus) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	if r.casMiss {
		r.casMiss = false
		return false, nil
	}
	for i := range r.members {
		if r.members[i].ID == member.ID && r.members[i].Status == observed {
			r.members[i].Status = member.Status
			r.members[i].History = member.History
			return true, nil
		}
	}
	return false, nil
}

type fakeTrophyRepo struct {
	trophies []models.Trophy
	members  []models.TrophyMember
	err      error
	casMiss  bool
}

func (r *fakeTrophyRepo) GetByID(ctx context.Context, id uint) (models.Trophy, error) {
	if r.err != nil {
		return models.Trophy{}, r.err
	}
	for _, trophy := range r.trophies {
		if trophy.ID == id {
			return trophy, nil
		}
	}
	return models.Trophy{}, gorm.ErrRecordNotFound
}

func (r *fakeTrophyRepo) List(ctx context.Context) ([]models.Trophy, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.trophies, nil
}

func (r *fakeTrophyRepo) Create(ctx context.Context, trophy *models.Trophy) error {
	if r.err != nil {
		return r.err
	}
	trophy.ID = uint(len(r.trophies) + 1)
	r.trophies = append(r.trophies, *trophy)
	return nil
}

func (r *fakeTrophyRepo) UpdateStatus(ctx context.Context, id uint, status models.TrophyStatus) error {
	if r.err != nil {
		return r.err
	}
	for i := range r.trophies {
		if r.trophies[i].ID == id {
			r.trophies[i].Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeTrophyRepo) Delete(ctx context.Context, id uint) error {
	if r.err != nil {
		return r.err
	}
	for i := range r.trophies {
		if r.trophies[i].ID == id {
			r.trophies = append(r.trophies[:i], r.trophies[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeTrophyRepo) ListEffectiveForMember(ctx context.Context, userID uint) ([]models.TrophyMember, error) {
	if r.err != nil {
		return nil, r.err
	}
	matched := make([]models.TrophyMember, 0)
	for _, member := range r.members {
		if member.UserID != userID || member.Status != models.TrophyEffective {
			continue
		}
		for _, trophy := range r.trophies {
			if trophy.ID == member.TrophyID {
				member.Trophy = trophy
			}
		}
		matched = append(matched, member)
	}
	return matched, nil
}

func (r *fakeTrophyRepo) GetMember(ctx context.Context, trophyID, userID uint) (models.TrophyMember, error) {
	if r.err != nil {
		return models.TrophyMember{}, r.err
	}
	for _, member := range r.members {
		if member.TrophyID == trophyID && member.UserID == userID {
			return member, nil
		}
	}
	return models.TrophyMember{}, gorm.ErrRecordNotFound
}

func (r *fakeTrophyRepo) CreateMember(ctx context.Context, member *models.TrophyMember) error {
	if r.err != nil {
		return r.err
	}
	member.ID = uint(len(r.members) + 1)
	r.members = append(r.members, *member)
	return nil
}

func (r *fakeTrophyRepo) CompareAndSwapMemberStatus(ctx context.Context, member *models.TrophyMember, observed models.TrophyStatus) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	if r.casMiss {
		r.casMiss = false
		return false, nil
	}
	for i := range r.members {
		if r.members[i].ID == member.ID && r.members[i].Status == observed {
			r.members[i].Status = member.Status
			return true, nil
		}
	}
	return false, nil
}
