package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vitalbite/wearable-sync/internal/domain"
	"github.com/vitalbite/wearable-sync/internal/repository"
	"go.uber.org/zap"
)

// summaryService implements SummaryService. It only ever reads; entries are
// written exclusively by the ingestion pipeline.
type summaryService struct {
	entries     repository.EntryRepository
	connections repository.ConnectionRepository
	cache       SummaryCache
	strategy    domain.ReconciliationStrategy
	logger      *zap.Logger
}

// NewSummaryService creates a new summary service with the given
// cross-provider reconciliation strategy
func NewSummaryService(
	entries repository.EntryRepository,
	connections repository.ConnectionRepository,
	cache SummaryCache,
	strategy domain.ReconciliationStrategy,
	logger *zap.Logger,
) SummaryService {
	return &summaryService{
		entries:     entries,
		connections: connections,
		cache:       cache,
		strategy:    strategy,
		logger:      logger,
	}
}

// Today folds a single day's entries into the daily view
func (s *summaryService) Today(ctx context.Context, userID string, date time.Time) (*domain.DailySummary, error) {
	date = domain.Day(date)
	view := "today:" + date.Format("2006-01-02")

	var cached domain.DailySummary
	if hit := s.cacheGet(ctx, userID, view, &cached); hit {
		return &cached, nil
	}

	entries, err := s.entries.ListByDateRange(ctx, userID, date, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	priority, err := s.providerPriority(ctx, userID)
	if err != nil {
		return nil, err
	}

	day := foldDay(selectEntries(entries, s.strategy, priority), s.strategy)
	summary := &domain.DailySummary{
		Date:             date,
		Steps:            day.steps,
		CaloriesBurned:   day.calories,
		ActiveMinutes:    day.activeMinutes,
		DistanceMeters:   day.distanceMeters,
		SleepHours:       float64(day.sleepMinutes) / 60,
		SleepScore:       day.avgSleepScore(),
		AvgHeartRate:     day.avgHeartRate(),
		RestingHeartRate: day.avgRestingHeartRate(),
		Entries:          day.entries,
	}

	s.cacheSet(ctx, userID, view, summary)
	return summary, nil
}

// WeeklyAverage folds the seven days ending at end into per-metric averages.
// Each metric is averaged over the distinct days that reported it, never over
// a fixed seven, so sparse weeks are not understated.
func (s *summaryService) WeeklyAverage(ctx context.Context, userID string, end time.Time) (*domain.WeeklySummary, error) {
	end = domain.Day(end)
	start := end.AddDate(0, 0, -6)
	view := "weekly:" + end.Format("2006-01-02")

	var cached domain.WeeklySummary
	if hit := s.cacheGet(ctx, userID, view, &cached); hit {
		return &cached, nil
	}

	entries, err := s.entries.ListByDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	priority, err := s.providerPriority(ctx, userID)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time][]*domain.HealthEntry)
	for _, entry := range entries {
		day := domain.Day(entry.Date)
		byDay[day] = append(byDay[day], entry)
	}

	summary := &domain.WeeklySummary{Start: start, End: end}
	var stepDays, calorieDays, activeDays, distanceDays, sleepDays, hrDays int

	for _, dayEntries := range byDay {
		day := foldDay(selectEntries(dayEntries, s.strategy, priority), s.strategy)
		if day.entries == 0 {
			continue
		}
		summary.DaysWithData++

		if day.hasSteps {
			summary.AvgSteps += float64(day.steps)
			stepDays++
		}
		if day.hasCalories {
			summary.AvgCaloriesBurned += day.calories
			calorieDays++
		}
		if day.hasActive {
			summary.AvgActiveMinutes += float64(day.activeMinutes)
			activeDays++
		}
		if day.hasDistance {
			summary.AvgDistanceMeters += day.distanceMeters
			distanceDays++
		}
		if day.hasSleep {
			summary.AvgSleepHours += float64(day.sleepMinutes) / 60
			sleepDays++
		}
		if day.hrCount > 0 {
			summary.AvgHeartRate += day.avgHeartRate()
			hrDays++
		}
	}

	summary.AvgSteps = divide(summary.AvgSteps, stepDays)
	summary.AvgCaloriesBurned = divide(summary.AvgCaloriesBurned, calorieDays)
	summary.AvgActiveMinutes = divide(summary.AvgActiveMinutes, activeDays)
	summary.AvgDistanceMeters = divide(summary.AvgDistanceMeters, distanceDays)
	summary.AvgSleepHours = divide(summary.AvgSleepHours, sleepDays)
	summary.AvgHeartRate = divide(summary.AvgHeartRate, hrDays)

	s.cacheSet(ctx, userID, view, summary)
	return summary, nil
}

// providerPriority ranks a user's active providers by connection recency;
// only the prefer-primary strategy needs it
func (s *summaryService) providerPriority(ctx context.Context, userID string) ([]string, error) {
	if s.strategy != domain.ReconcilePreferPrimary {
		return nil, nil
	}

	connections, err := s.connections.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to rank providers: %w", err)
	}

	var priority []string
	for _, conn := range connections {
		if conn.IsActive() {
			priority = append(priority, conn.Provider)
		}
	}
	return priority, nil
}

func (s *summaryService) cacheGet(ctx context.Context, userID, view string, dest any) bool {
	hit, err := s.cache.Get(ctx, userID, view, dest)
	if err != nil {
		s.logger.Warn("Summary cache read failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return hit
}

func (s *summaryService) cacheSet(ctx context.Context, userID, view string, value any) {
	if err := s.cache.Set(ctx, userID, view, value); err != nil {
		s.logger.Warn("Summary cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// dayMetrics accumulates one day's fold
type dayMetrics struct {
	steps          int64
	calories       float64
	activeMinutes  int64
	distanceMeters float64
	sleepMinutes   int64

	hasSteps, hasCalories, hasActive, hasDistance, hasSleep bool

	sleepScoreSum   float64
	sleepScoreCount int
	hrSum           float64
	hrCount         int
	restingSum      float64
	restingCount    int

	entries int
}

func (d *dayMetrics) avgSleepScore() float64      { return divide(d.sleepScoreSum, d.sleepScoreCount) }
func (d *dayMetrics) avgHeartRate() float64       { return divide(d.hrSum, d.hrCount) }
func (d *dayMetrics) avgRestingHeartRate() float64 { return divide(d.restingSum, d.restingCount) }

// selectEntries applies the prefer-primary strategy: for each data type, keep
// only the highest-priority provider that reported that type. The other
// strategies fold every entry.
func selectEntries(entries []*domain.HealthEntry, strategy domain.ReconciliationStrategy, priority []string) []*domain.HealthEntry {
	if strategy != domain.ReconcilePreferPrimary || len(priority) == 0 {
		return entries
	}

	rank := make(map[string]int, len(priority))
	for i, provider := range priority {
		rank[provider] = i
	}

	best := make(map[domain.DataType]int)
	for _, entry := range entries {
		r, known := rank[entry.Provider]
		if !known {
			r = len(priority)
		}
		if current, seen := best[entry.DataType]; !seen || r < current {
			best[entry.DataType] = r
		}
	}

	var selected []*domain.HealthEntry
	for _, entry := range entries {
		r, known := rank[entry.Provider]
		if !known {
			r = len(priority)
		}
		if r == best[entry.DataType] {
			selected = append(selected, entry)
		}
	}
	return selected
}

// foldDay combines one day's selected entries. Additive metrics follow the
// strategy (sum or max); heart rate and scores are always averaged across the
// entries that report them, since adding heart rates is meaningless.
func foldDay(entries []*domain.HealthEntry, strategy domain.ReconciliationStrategy) dayMetrics {
	var day dayMetrics
	useMax := strategy == domain.ReconcileMax

	for _, entry := range entries {
		day.entries++

		if entry.Steps != nil {
			day.steps = combineInt(day.steps, *entry.Steps, useMax)
			day.hasSteps = true
		}
		if entry.CaloriesBurned != nil {
			day.calories = combineFloat(day.calories, *entry.CaloriesBurned, useMax)
			day.hasCalories = true
		}
		if entry.ActiveMinutes != nil {
			day.activeMinutes = combineInt(day.activeMinutes, *entry.ActiveMinutes, useMax)
			day.hasActive = true
		}
		if entry.DistanceMeters != nil {
			day.distanceMeters = combineFloat(day.distanceMeters, *entry.DistanceMeters, useMax)
			day.hasDistance = true
		}
		if entry.TotalSleepMinutes != nil {
			day.sleepMinutes = combineInt(day.sleepMinutes, *entry.TotalSleepMinutes, useMax)
			day.hasSleep = true
		}
		if entry.SleepScore != nil {
			day.sleepScoreSum += *entry.SleepScore
			day.sleepScoreCount++
		}
		if entry.AvgHeartRate != nil {
			day.hrSum += *entry.AvgHeartRate
			day.hrCount++
		}
		if entry.RestingHeartRate != nil {
			day.restingSum += *entry.RestingHeartRate
			day.restingCount++
		}
	}

	return day
}

func combineInt(acc, v int64, useMax bool) int64 {
	if useMax {
		if v > acc {
			return v
		}
		return acc
	}
	return acc + v
}

func combineFloat(acc, v float64, useMax bool) float64 {
	if useMax {
		if v > acc {
			return v
		}
		return acc
	}
	return acc + v
}

func divide(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
