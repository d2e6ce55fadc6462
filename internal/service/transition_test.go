package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zvms-dev/zvms-api/internal/models"
)

func student(id uint) models.User {
	return models.User{ID: id, Roles: []string{"student"}}
}

func auditor(id uint) models.User {
	return models.User{ID: id, Roles: []string{"auditor"}}
}

func transitionFixture(memberStatus models.MemberStatus) (*fakeActivityRepo, TransitionService) {
	activities := &fakeActivityRepo{
		activities: []models.Activity{
			{ID: 1, Kind: models.ActivitySpecified, Status: models.ActivityEffective},
		},
		members: []models.ActivityMember{
			{ID: 1, ActivityID: 1, UserID: 7, Status: memberStatus, Mode: models.CategoryOnCampus},
		},
	}
	svc := NewTransitionService(activities, &fakeTrophyRepo{}, testLogger())
	return activities, svc
}

func TestTransitionSubjectSubmitsDraft(t *testing.T) {
	activities, svc := transitionFixture(models.MemberDraft)

	member, err := svc.TransitionActivityMember(context.Background(), 1, 7, models.MemberPending, student(7))
	require.NoError(t, err)
	require.Equal(t, models.MemberPending, member.Status)
	require.Equal(t, models.MemberPending, activities.members[0].Status)
}

func TestTransitionAppendsHistory(t *testing.T) {
	_, svc := transitionFixture(models.MemberDraft)

	member, err := svc.TransitionActivityMember(context.Background(), 1, 7, models.MemberPending, student(7))
	require.NoError(t, err)

	var entries []models.MemberHistoryEntry
	require.NoError(t, json.Unmarshal(member.History, &entries))
	require.Len(t, entries, 1)
	require.Equal(t, uint(7), entries[0].ActorID)
	require.Equal(t, models.MemberDraft, entries[0].From)
	require.Equal(t, models.MemberPending, entries[0].To)
}

func TestTransitionNonElevatedCannotSettle(t *testing.T) {
	_, svc := transitionFixture(models.MemberDraft)

	_, err := svc.TransitionActivityMember(context.Background(), 1, 7, models.MemberEffective, student(7))
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestTransitionElevatedSettles(t *testing.T) {
	_, svc := transitionFixture(models.MemberPending)

	member, err := svc.TransitionActivityMember(context.Background(), 1, 7, models.MemberEffective, auditor(2))
	require.NoError(t, err)
	require.Equal(t, models.MemberEffective, member.Status)
}

func TestTransitionTerminalStatesAreFinal(t *testing.T) {
	targets := []models.MemberStatus{
		models.MemberDraft, models.MemberPending, models.MemberEffective,
		models.MemberRefused, models.MemberRejected,
	}
	for _, from := range []models.MemberStatus{models.MemberEffective, models.MemberRefused} {
		for _, target := range targets {
			_, svc := transitionFixture(from)
			_, err := svc.TransitionActivityMember(context.Background(), 1, 7, target, auditor(2))
			require.ErrorIs(t, err, ErrInvalidTransition, "from %s to %s", from, target)
		}
	}
}

func TestTransitionSelfMoveByOtherStudentDenied(t *testing.T) {
	_, svc := transitionFixture(models.MemberDraft)

	_, err := svc.TransitionActivityMember(context.Background(), 1, 7, models.MemberPending, student(8))
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestTransitionRejectedAllowsResubmission(t *testing.T) {
	_, svc := transitionFixture(models.MemberRejected)

	member, err := svc.TransitionActivityMember(context.Background(), 1, 7, models.MemberPending, student(7))
	require.NoError(t, err)
	require.Equal(t, models.MemberPending, member.Status)
}

func TestTransitionUnknownPairRejected(t *testing.T) {
	_, svc := transitionFixture(models.MemberDraft)

	// draft -> draft is not in the table.
	_, err := svc.TransitionActivityMember(context.Background(), 1, 7, models.MemberDraft, auditor(2))
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionUnknownTargetRejected(t *testing.T) {
	_, svc := transitionFixture(models.MemberDraft)

	_, err := svc.TransitionActivityMember(context.Background(), 1, 7, models.MemberStatus("archived"), auditor(2))
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionMissingActivity(t *testing.T) {
	_, svc := transitionFixture(models.MemberDraft)

	_, err := svc.TransitionActivityMember(context.Background(), 42, 7, models.MemberPending, student(7))
	require.ErrorIs(t, err, ErrActivityNotFound)
}

func TestTransitionSubjectNotInActivity(t *testing.T) {
	_, svc := transitionFixture(models.MemberDraft)

	_, err := svc.TransitionActivityMember(context.Background(), 1, 9, models.MemberPending, student(9))
	require.ErrorIs(t, err, ErrNotInRecord)
}

func TestTransitionLostRaceLeavesRecordUntouched(t *testing.T) {
	activities, svc := transitionFixture(models.MemberDraft)
	activities.casMiss = true

	_, err := svc.TransitionActivityMember(context.Background(), 1, 7, models.MemberPending, student(7))
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, models.MemberDraft, activities.members[0].Status)
}

func trophyTransitionFixture(status models.TrophyStatus) (*fakeTrophyRepo, TransitionService) {
	trophies := &fakeTrophyRepo{
		trophies: []models.Trophy{
			{ID: 1, Status: models.TrophyEffective, Awards: []models.TrophyAward{{Name: "first", Duration: 5.0}}},
		},
		members: []models.TrophyMember{
			{ID: 1, TrophyID: 1, UserID: 7, AwardName: "first", Mode: models.CategoryOnCampus, Status: status},
		},
	}
	svc := NewTransitionService(&fakeActivityRepo{}, trophies, testLogger())
	return trophies, svc
}

func TestTrophyTransitionElevatedSettles(t *testing.T) {
	trophies, svc := trophyTransitionFixture(models.TrophyPending)

	member, err := svc.TransitionTrophyMember(context.Background(), 1, 7, models.TrophyEffective, auditor(2))
	require.NoError(t, err)
	require.Equal(t, models.TrophyEffective, member.Status)
	require.Equal(t, models.TrophyEffective, trophies.members[0].Status)
}

func TestTrophyTransitionSubjectCannotSettle(t *testing.T) {
	_, svc := trophyTransitionFixture(models.TrophyPending)

	_, err := svc.TransitionTrophyMember(context.Background(), 1, 7, models.TrophyEffective, student(7))
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestTrophyTransitionTerminalIsFinal(t *testing.T) {
	for _, from := range []models.TrophyStatus{models.TrophyEffective, models.TrophyRefused} {
		_, svc := trophyTransitionFixture(from)
		_, err := svc.TransitionTrophyMember(context.Background(), 1, 7, models.TrophyPending, auditor(2))
		require.ErrorIs(t, err, ErrInvalidTransition)
	}
}

func TestCheckTransitionOrder(t *testing.T) {
	// Terminal source wins over pair lookup: effective -> pending is not in the
	// table either, but the error must come from the terminal check.
	err := checkTransition(memberTransitions, models.MemberEffective, models.MemberPending, true, true)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Role check runs only after the pair is known.
	err = checkTransition(memberTransitions, models.MemberDraft, models.MemberEffective, true, false)
	require.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, checkTransition(memberTransitions, models.MemberDraft, models.MemberEffective, false, true))
}
