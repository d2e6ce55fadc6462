package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/zvms-dev/zvms-api/internal/models"
	"github.com/zvms-dev/zvms-api/internal/observability"
	"github.com/zvms-dev/zvms-api/internal/repository"
)

// transitionRule describes who may perform one (from, to) move. SelfOnly and
// Elevated are mutually exclusive: a move either belongs to the record's own
// subject or to a reviewer.
type transitionRule struct {
	SelfOnly bool
	Elevated bool
}

type statusPair struct {
	From models.MemberStatus
	To   models.MemberStatus
}

// memberTransitions is the full permission matrix for participation records.
// Terminal states (effective, refused) have no outgoing pairs; that absence
// is itself the invariant, checked explicitly before the lookup so the error
// distinguishes "settled" from "unknown pair".
var memberTransitions = map[statusPair]transitionRule{
	{models.MemberDraft, models.MemberPending}:     {SelfOnly: true},
	{models.MemberPending, models.MemberDraft}:     {SelfOnly: true},
	{models.MemberRejected, models.MemberDraft}:    {SelfOnly: true},
	{models.MemberRejected, models.MemberPending}:  {SelfOnly: true},
	{models.MemberDraft, models.MemberEffective}:   {Elevated: true},
	{models.MemberPending, models.MemberEffective}: {Elevated: true},
	{models.MemberRejected, models.MemberEffective}: {Elevated: true},
	{models.MemberDraft, models.MemberRefused}:     {Elevated: true},
	{models.MemberPending, models.MemberRefused}:   {Elevated: true},
	{models.MemberRejected, models.MemberRefused}:  {Elevated: true},
	{models.MemberDraft, models.MemberRejected}:    {Elevated: true},
	{models.MemberPending, models.MemberRejected}:  {Elevated: true},
}

// trophyTransitions is the matrix for award records, which have no draft or
// rejected state.
var trophyTransitions = map[statusPair]transitionRule{
	{models.MemberStatus(models.TrophyPending), models.MemberStatus(models.TrophyEffective)}: {Elevated: true},
	{models.MemberStatus(models.TrophyPending), models.MemberStatus(models.TrophyRefused)}:   {Elevated: true},
}

// TransitionService validates and applies status transitions on a single
// participation or award record. All checks run before any mutation; the
// mutation itself is atomic relative to the record.
type TransitionService interface {
	TransitionActivityMember(ctx context.Context, activityID, subjectID uint, target models.MemberStatus, actor models.User) (models.ActivityMember, error)
	TransitionTrophyMember(ctx context.Context, trophyID, subjectID uint, target models.TrophyStatus, actor models.User) (models.TrophyMember, error)
}

type transitionService struct {
	activities repository.ActivityRepository
	trophies   repository.TrophyRepository
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewTransitionService constructs the state machine.
func NewTransitionService(activities repository.ActivityRepository, trophies repository.TrophyRepository, logger zerolog.Logger) TransitionService {
	return &transitionService{
		activities: activities,
		trophies:   trophies,
		logger:     logger.With().Str("component", "transition_service").Logger(),
		tracer:     otel.Tracer("github.com/zvms-dev/zvms-api/internal/service/transition"),
		now:        time.Now,
	}
}

// checkTransition evaluates the rule table for one requested move. The order
// is fixed: terminal source first, then pair existence, then role/ownership.
func checkTransition(table map[statusPair]transitionRule, from, to models.MemberStatus, actorIsSubject, actorElevated bool) error {
	if from.IsTerminal() {
		return ErrInvalidTransition
	}
	rule, ok := table[statusPair{From: from, To: to}]
	if !ok {
		return ErrInvalidTransition
	}
	if rule.SelfOnly && !actorIsSubject {
		return ErrPermissionDenied
	}
	if rule.Elevated && !actorElevated {
		return ErrPermissionDenied
	}
	return nil
}

func (s *transitionService) TransitionActivityMember(ctx context.Context, activityID, subjectID uint, target models.MemberStatus, actor models.User) (models.ActivityMember, error) {
	ctx, span := s.tracer.Start(ctx, "transition.activity_member")
	span.SetAttributes(
		attribute.Int64("transition.activity_id", int64(activityID)),
		attribute.Int64("transition.subject_id", int64(subjectID)),
		attribute.String("transition.target", string(target)),
	)
	defer span.End()

	if !target.IsValid() {
		return models.ActivityMember{}, ErrInvalidTransition
	}

	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "activity_not_found")
			return models.ActivityMember{}, ErrActivityNotFound
		}
		return models.ActivityMember{}, storeErr(err)
	}

	member, err := s.activities.GetMember(ctx, activityID, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "not_in_record")
			return models.ActivityMember{}, ErrNotInRecord
		}
		return models.ActivityMember{}, storeErr(err)
	}

	observed := member.Status
	if err := checkTransition(memberTransitions, observed, target, actor.ID == subjectID, actor.HasElevatedRole()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition_denied")
		observability.Transitions().WithLabelValues("participation", string(target), "denied").Inc()
		return models.ActivityMember{}, err
	}

	history, err := appendHistory(member.History, models.MemberHistoryEntry{
		ActorID: actor.ID,
		From:    observed,
		To:      target,
		Time:    s.now(),
	})
	if err != nil {
		return models.ActivityMember{}, err
	}

	member.Status = target
	member.History = history

	applied, err := s.activities.CompareAndSwapMemberStatus(ctx, &member, observed)
	if err != nil {
		return models.ActivityMember{}, storeErr(err)
	}
	if !applied {
		// A concurrent writer changed the record after our snapshot. The
		// caller must re-fetch; nothing was mutated by this request.
		span.SetStatus(codes.Error, "stale_snapshot")
		observability.Transitions().WithLabelValues("participation", string(target), "conflict").Inc()
		return models.ActivityMember{}, ErrInvalidTransition
	}

	observability.Transitions().WithLabelValues("participation", string(target), "applied").Inc()

	s.logger.Info().
		Uint("activity_id", activityID).
		Uint("subject_id", subjectID).
		Uint("actor_id", actor.ID).
		Str("from", string(observed)).
		Str("to", string(target)).
		Msg("participation status changed")

	return member, nil
}

func (s *transitionService) TransitionTrophyMember(ctx context.Context, trophyID, subjectID uint, target models.TrophyStatus, actor models.User) (models.TrophyMember, error) {
	ctx, span := s.tracer.Start(ctx, "transition.trophy_member")
	span.SetAttributes(
		attribute.Int64("transition.trophy_id", int64(trophyID)),
		attribute.Int64("transition.subject_id", int64(subjectID)),
		attribute.String("transition.target", string(target)),
	)
	defer span.End()

	if _, err := s.trophies.GetByID(ctx, trophyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "trophy_not_found")
			return models.TrophyMember{}, ErrTrophyNotFound
		}
		return models.TrophyMember{}, storeErr(err)
	}

	member, err := s.trophies.GetMember(ctx, trophyID, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "not_in_record")
			return models.TrophyMember{}, ErrNotInRecord
		}
		return models.TrophyMember{}, storeErr(err)
	}

	observed := member.Status
	if err := checkTransition(trophyTransitions, models.MemberStatus(observed), models.MemberStatus(target), actor.ID == subjectID, actor.HasElevatedRole()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition_denied")
		observability.Transitions().WithLabelValues("award", string(target), "denied").Inc()
		return models.TrophyMember{}, err
	}

	member.Status = target

	applied, err := s.trophies.CompareAndSwapMemberStatus(ctx, &member, observed)
	if err != nil {
		return models.TrophyMember{}, storeErr(err)
	}
	if !applied {
		span.SetStatus(codes.Error, "stale_snapshot")
		observability.Transitions().WithLabelValues("award", string(target), "conflict").Inc()
		return models.TrophyMember{}, ErrInvalidTransition
	}

	observability.Transitions().WithLabelValues("award", string(target), "applied").Inc()

	s.logger.Info().
		Uint("trophy_id", trophyID).
		Uint("subject_id", subjectID).
		Uint("actor_id", actor.ID).
		Str("from", string(observed)).
		Str("to", string(target)).
		Msg("award status changed")

	return member, nil
}

// appendHistory adds one entry to the member's append-only history document.
func appendHistory(raw []byte, entry models.MemberHistoryEntry) ([]byte, error) {
	var entries []models.MemberHistoryEntry
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, errors.Join(ErrDataIntegrity, err)
		}
	}
	entries = append(entries, entry)
	return json.Marshal(entries)
}
