package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/zvms-dev/zvms-api/internal/dto"
	"github.com/zvms-dev/zvms-api/internal/models"
	"github.com/zvms-dev/zvms-api/internal/observability"
	"github.com/zvms-dev/zvms-api/internal/repository"
)

// AccrualConfig supplies the award quota and the discount knobs. Zero value
// is not usable; start from DefaultAccrualConfig.
type AccrualConfig struct {
	PrizeQuota   float64
	Discount     bool
	DiscountRate float64
	DiscountCap  float64
	DiscountBase float64
}

// DefaultAccrualConfig returns the school's standing accounting parameters.
func DefaultAccrualConfig() AccrualConfig {
	return AccrualConfig{
		PrizeQuota:   10.0,
		Discount:     false,
		DiscountRate: 1.0 / 3.0,
		DiscountCap:  6.0,
		DiscountBase: 30.0,
	}
}

// TimesheetService converts a user's countable records into categorized,
// capped duration totals. Computation is a pure function of the record store
// snapshot and the config; results are never cached.
type TimesheetService interface {
	Compute(ctx context.Context, userID uint, cfg AccrualConfig) (dto.TimeSummary, error)
}

type timesheetService struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	trophies   repository.TrophyRepository
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewTimesheetService constructs the aggregator.
func NewTimesheetService(users repository.UserRepository, activities repository.ActivityRepository, trophies repository.TrophyRepository, logger zerolog.Logger) TimesheetService {
	return &timesheetService{
		users:      users,
		activities: activities,
		trophies:   trophies,
		logger:     logger.With().Str("component", "timesheet_service").Logger(),
		tracer:     otel.Tracer("github.com/zvms-dev/zvms-api/internal/service/timesheet"),
	}
}

// round1 rounds half away from zero to one decimal place. It is applied at
// exactly two points of the computation; no other intermediate rounding.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func (s *timesheetService) Compute(ctx context.Context, userID uint, cfg AccrualConfig) (dto.TimeSummary, error) {
	ctx, span := s.tracer.Start(ctx, "timesheet.compute")
	span.SetAttributes(attribute.Int64("timesheet.user_id", int64(userID)))
	defer span.End()

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TimeSummary{}, ErrUserNotFound
		}
		return dto.TimeSummary{}, storeErr(err)
	}

	onCampus, offCampus, awardTotal, err := s.computeAwards(ctx, userID, cfg.PrizeQuota)
	if err != nil {
		observability.Computations().WithLabelValues(computeOutcome(err)).Inc()
		return dto.TimeSummary{}, err
	}

	var socialPractice float64

	special, err := s.sumSpecial(ctx, userID)
	if err != nil {
		observability.Computations().WithLabelValues(computeOutcome(err)).Inc()
		return dto.TimeSummary{}, err
	}
	normal, err := s.sumNormal(ctx, userID)
	if err != nil {
		observability.Computations().WithLabelValues(computeOutcome(err)).Inc()
		return dto.TimeSummary{}, err
	}

	onCampus += special.onCampus + normal.onCampus
	offCampus += special.offCampus + normal.offCampus
	socialPractice += special.socialPractice + normal.socialPractice

	onCampus = round1(onCampus)
	offCampus = round1(offCampus)

	if cfg.Discount && onCampus > cfg.DiscountBase {
		extra := round1((onCampus - cfg.DiscountBase) * cfg.DiscountRate)
		if extra > cfg.DiscountCap {
			extra = cfg.DiscountCap
		}
		offCampus += extra
	}

	summary := dto.TimeSummary{
		OnCampus:       round1(onCampus),
		OffCampus:      round1(offCampus),
		SocialPractice: round1(socialPractice),
		Award:          round1(awardTotal),
	}
	summary.Total = round1(summary.OnCampus + summary.OffCampus + summary.SocialPractice)

	span.SetAttributes(attribute.Float64("timesheet.total", summary.Total))
	observability.Computations().WithLabelValues("ok").Inc()

	return summary, nil
}

func computeOutcome(err error) string {
	switch {
	case errors.Is(err, ErrDataIntegrity):
		return "integrity"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// computeAwards runs the capped award phase: prize-classified special entries
// first, then trophy entries, against one shared running total bounded by the
// quota. Prize entries and trophies are mutually exclusive record sets.
func (s *timesheetService) computeAwards(ctx context.Context, userID uint, quota float64) (onCampus, offCampus, total float64, err error) {
	kind := models.ActivitySpecial
	classify := models.ClassifyPrize
	status := models.MemberEffective

	prizeMembers, err := s.activities.ListForMember(ctx, userID, repository.MemberFilter{
		Kind:     &kind,
		Classify: &classify,
		Status:   &status,
	})
	if err != nil {
		return 0, 0, 0, storeErr(err)
	}

	for _, member := range prizeMembers {
		if member.Duration < 0 {
			return 0, 0, 0, fmt.Errorf("%w: negative duration on activity %d member %d", ErrDataIntegrity, member.ActivityID, member.ID)
		}
		switch member.Mode {
		case models.CategoryOnCampus:
			onCampus += member.Duration
		case models.CategoryOffCampus:
			offCampus += member.Duration
		default:
			// Prize entries only ever pay into the two campus buckets.
			return 0, 0, 0, fmt.Errorf("%w: prize entry on activity %d has mode %q", ErrDataIntegrity, member.ActivityID, member.Mode)
		}
		total += member.Duration
	}

	// When prize entries alone fill the quota, split it proportionally and
	// skip the trophy loop entirely.
	if total >= quota && total > 0 {
		onCampus = round1(onCampus / total * quota)
		offCampus = quota - onCampus
		return onCampus, offCampus, quota, nil
	}

	trophyMembers, err := s.trophies.ListEffectiveForMember(ctx, userID)
	if err != nil {
		return 0, 0, 0, storeErr(err)
	}

	for _, member := range trophyMembers {
		duration, ok := member.Trophy.AwardDuration(member.AwardName)
		if !ok {
			return 0, 0, 0, fmt.Errorf("%w: trophy %d member %d references unknown tier %q", ErrDataIntegrity, member.TrophyID, member.ID, member.AwardName)
		}
		if duration < 0 {
			return 0, 0, 0, fmt.Errorf("%w: negative tier duration on trophy %d", ErrDataIntegrity, member.TrophyID)
		}

		clamped := false
		if total+duration > quota {
			duration = quota - total
			clamped = true
		}

		switch member.Mode {
		case models.CategoryOnCampus:
			onCampus += duration
		case models.CategoryOffCampus:
			offCampus += duration
		default:
			return 0, 0, 0, fmt.Errorf("%w: trophy %d member %d has mode %q", ErrDataIntegrity, member.TrophyID, member.ID, member.Mode)
		}

		if clamped {
			// The quota, once reached, ends the phase: later entries are not
			// considered even if a smaller one would still fit.
			return onCampus, offCampus, quota, nil
		}
		total += duration
	}

	return onCampus, offCampus, total, nil
}

type categoryTotals struct {
	onCampus       float64
	offCampus      float64
	socialPractice float64
}

func (t *categoryTotals) add(category models.Category, duration float64) error {
	if duration < 0 {
		return fmt.Errorf("%w: negative duration", ErrDataIntegrity)
	}
	if _, err := models.ParseCategory(string(category)); err != nil {
		return fmt.Errorf("%w: category %q", ErrDataIntegrity, category)
	}
	switch category {
	case models.CategoryOnCampus:
		t.onCampus += duration
	case models.CategoryOffCampus:
		t.offCampus += duration
	case models.CategorySocialPractice:
		t.socialPractice += duration
	}
	return nil
}

// sumSpecial totals non-prize special entries from the member's own duration
// field, uncapped.
func (s *timesheetService) sumSpecial(ctx context.Context, userID uint) (categoryTotals, error) {
	kind := models.ActivitySpecial
	notClassify := models.ClassifyPrize
	status := models.MemberEffective

	members, err := s.activities.ListForMember(ctx, userID, repository.MemberFilter{
		Kind:        &kind,
		NotClassify: &notClassify,
		Status:      &status,
	})
	if err != nil {
		return categoryTotals{}, storeErr(err)
	}

	var totals categoryTotals
	for _, member := range members {
		if err := totals.add(member.Mode, member.Duration); err != nil {
			return categoryTotals{}, fmt.Errorf("activity %d member %d: %w", member.ActivityID, member.ID, err)
		}
	}
	return totals, nil
}

// sumNormal totals non-special entries using the parent activity's duration
// field rather than the member's own. The difference from the special phase
// is deliberate: normal activities credit a fixed block of time.
func (s *timesheetService) sumNormal(ctx context.Context, userID uint) (categoryTotals, error) {
	notKind := models.ActivitySpecial
	status := models.MemberEffective

	members, err := s.activities.ListForMember(ctx, userID, repository.MemberFilter{
		NotKind: &notKind,
		Status:  &status,
	})
	if err != nil {
		return categoryTotals{}, storeErr(err)
	}

	var totals categoryTotals
	for _, member := range members {
		if err := totals.add(member.Mode, member.Activity.Duration); err != nil {
			return categoryTotals{}, fmt.Errorf("activity %d member %d: %w", member.ActivityID, member.ID, err)
		}
	}
	return totals, nil
}
