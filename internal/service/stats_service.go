package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/atelier-apps/atelier-admin-api/internal/dto"
	"github.com/atelier-apps/atelier-admin-api/internal/models"
	"github.com/atelier-apps/atelier-admin-api/pkg/config"
	appErrors "github.com/atelier-apps/atelier-admin-api/pkg/errors"
)

type statsStudentRepo interface {
	ListAll(ctx context.Context) ([]models.Student, error)
}

type statsSessionRepo interface {
	ListAll(ctx context.Context) ([]models.Session, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type statsMetrics interface {
	RecordCacheLookup(hit bool)
	ObserveDerivation(operation string, duration time.Duration)
}

const statsCachePrefix = "stats:"

// StatsService produces the monthly and yearly revenue rollups. Derived
// payloads are cached; any student or session mutation invalidates them.
type StatsService struct {
	students statsStudentRepo
	sessions statsSessionRepo
	cache    statsCache
	metrics  statsMetrics
	cfg      config.StatsConfig
	logger   *zap.Logger
}

// NewStatsService constructs StatsService.
func NewStatsService(students statsStudentRepo, sessions statsSessionRepo, cache statsCache, cfg config.StatsConfig, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{students: students, sessions: sessions, cache: cache, cfg: cfg, logger: logger}
}

// WithMetrics attaches an observability recorder for cache lookups and
// derivation timings.
func (s *StatsService) WithMetrics(metrics statsMetrics) *StatsService {
	s.metrics = metrics
	return s
}

func (s *StatsService) recordLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(hit)
	}
}

// Monthly returns the rollups of one calendar year, newest month first.
func (s *StatsService) Monthly(ctx context.Context, year int) (*dto.MonthlyStatsResponse, error) {
	key := statsCachePrefix + "monthly:" + strconv.Itoa(year)
	if s.cache != nil {
		var cached dto.MonthlyStatsResponse
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.recordLookup(true)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.recordLookup(false)
	}

	byMonth, err := s.aggregate(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.MonthlyStatsResponse{Year: year, Months: []models.MonthStats{}}
	for _, m := range byMonth {
		switch {
		case m.Key == models.UnknownBucket:
			unknown := m
			resp.Unknown = &unknown
		case m.Year == year:
			resp.Months = append(resp.Months, m)
		}
	}
	sort.Slice(resp.Months, func(a, b int) bool { return resp.Months[a].Key > resp.Months[b].Key })

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}

// Yearly returns the all-time rollups, newest year first.
func (s *StatsService) Yearly(ctx context.Context) (*dto.YearlyStatsResponse, error) {
	key := statsCachePrefix + "yearly"
	if s.cache != nil {
		var cached dto.YearlyStatsResponse
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.recordLookup(true)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.recordLookup(false)
	}

	byMonth, err := s.aggregate(ctx)
	if err != nil {
		return nil, err
	}

	byYear := map[int]*models.YearStats{}
	var unknown *models.YearStats
	for _, m := range byMonth {
		var target *models.YearStats
		if m.Key == models.UnknownBucket {
			if unknown == nil {
				unknown = &models.YearStats{}
			}
			target = unknown
		} else {
			if byYear[m.Year] == nil {
				byYear[m.Year] = &models.YearStats{Year: m.Year}
			}
			target = byYear[m.Year]
		}
		target.Sessions += m.Sessions
		target.LessonParticipations += m.LessonParticipations
		target.NewStudents += m.NewStudents
		target.NewPacks += m.NewPacks
		target.NewMembers += m.NewMembers
		target.Revenue += m.Revenue
	}

	resp := &dto.YearlyStatsResponse{Years: []models.YearStats{}, Unknown: unknown}
	for _, y := range byYear {
		resp.Years = append(resp.Years, *y)
	}
	sort.Slice(resp.Years, func(a, b int) bool { return resp.Years[a].Year > resp.Years[b].Year })

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}

// Invalidate drops every cached statistics payload. Called after any student
// or session mutation.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, statsCachePrefix+"*"); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

// monthKey buckets an ISO date by its YYYY-MM prefix. Missing or malformed
// dates land in the explicit unknown bucket so totals stay auditable.
func monthKey(dateStr string) string {
	if len(dateStr) < 7 {
		return models.UnknownBucket
	}
	key := dateStr[:7]
	year, err := strconv.Atoi(key[:4])
	if err != nil || year <= 0 {
		return models.UnknownBucket
	}
	month, err := strconv.Atoi(key[5:7])
	if err != nil || key[4] != '-' || month < 1 || month > 12 {
		return models.UnknownBucket
	}
	return key
}

func (s *StatsService) aggregate(ctx context.Context) (map[string]models.MonthStats, error) {
	if s.metrics != nil {
		start := time.Now()
		defer func() { s.metrics.ObserveDerivation("stats_aggregate", time.Since(start)) }()
	}

	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}

	byID := make(map[string]*models.Student, len(students))
	for i := range students {
		byID[students[i].ID] = &students[i]
	}

	buckets := map[string]*models.MonthStats{}
	bucket := func(key string) *models.MonthStats {
		if b, ok := buckets[key]; ok {
			return b
		}
		b := &models.MonthStats{
			Key: key,
			Detail: models.AcquisitionDetail{
				Discoveries: []models.StudentRef{},
				Packs:       []models.StudentRef{},
				Members:     []models.StudentRef{},
			},
		}
		if key != models.UnknownBucket {
			b.Year, _ = strconv.Atoi(key[:4])
			b.Month, _ = strconv.Atoi(key[5:7])
		}
		buckets[key] = b
		return b
	}

	// A student's acquisition month is the month of their first session
	// ever, whatever its confirmation status.
	firstSession := map[string]string{}
	for i := range sessions {
		for _, link := range sessions[i].Students {
			first, ok := firstSession[link.StudentID]
			if !ok || sessions[i].DateStr < first {
				firstSession[link.StudentID] = sessions[i].DateStr
			}
		}
	}
	for studentID, date := range firstSession {
		student, ok := byID[studentID]
		if !ok {
			continue
		}
		b := bucket(monthKey(date))
		b.NewStudents++
		b.Detail.Discoveries = append(b.Detail.Discoveries, refOf(*student))
	}

	for i := range students {
		student := students[i]

		// Pack starts: current pack5 holders, plus members who held a pack
		// before transitioning.
		if student.PackageStartDate != nil && *student.PackageStartDate != "" {
			wasPack := student.PackageType == models.PackagePack5 ||
				(student.PackageType == models.PackageMember && student.MemberTransitionDate != nil && *student.MemberTransitionDate != "")
			if wasPack {
				b := bucket(monthKey(*student.PackageStartDate))
				b.NewPacks++
				b.Detail.Packs = append(b.Detail.Packs, refOf(student))
			}
		}

		if student.PackageType == models.PackageMember {
			transition := student.MemberTransitionDate
			if transition == nil || *transition == "" {
				transition = student.PackageStartDate
			}
			if transition != nil && *transition != "" {
				b := bucket(monthKey(*transition))
				b.NewMembers++
				b.Detail.Members = append(b.Detail.Members, refOf(student))
			}
		}
	}

	for i := range sessions {
		b := bucket(monthKey(sessions[i].DateStr))
		b.Sessions++
		b.LessonParticipations += len(sessions[i].Students)
	}

	out := make(map[string]models.MonthStats, len(buckets))
	for key, b := range buckets {
		b.Revenue = b.NewStudents*s.cfg.DiscoveryPrice + b.NewPacks*s.cfg.PackPrice + b.NewMembers*s.cfg.MemberPrice
		out[key] = *b
	}
	return out, nil
}

func refOf(s models.Student) models.StudentRef {
	return models.StudentRef{ID: s.ID, FirstName: s.FirstName, LastName: s.LastName}
}
