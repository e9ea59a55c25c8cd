package service

import (
	"context"

	"uniplanner/core/constants"
	"uniplanner/core/logger"
	"uniplanner/modules/event/entity"
	"uniplanner/modules/event/repository"
)

// Strategy names the rule that identified a series.
type Strategy string

const (
	StrategyDirect    Strategy = "direct"
	StrategyMeta      Strategy = "meta"
	StrategyEmbedded  Strategy = "embedded"
	StrategyHeuristic Strategy = "heuristic"
	StrategyNone      Strategy = "none"
)

// Series is the resolved membership of a target's series across both
// collections, in date order.
type Series struct {
	Strategy    Strategy
	ActiveIDs   []string
	ArchivedIDs []string
}

func (s Series) Empty() bool {
	return len(s.ActiveIDs)+len(s.ArchivedIDs) == 0
}

func (s Series) Len() int {
	return len(s.ActiveIDs) + len(s.ArchivedIDs)
}

type ResolveOptions struct {
	// FutureOnly keeps occurrences dated on or after the target.
	FutureOnly bool
	// AllowEmbedded enables matching on "[META]" blocks in descriptions.
	AllowEmbedded bool
	// AllowHeuristic enables the title + time fallback.
	AllowHeuristic bool
	// ScanLimit caps rows read per collection by the heuristic step and is
	// the page size of the other steps, which always read to the end.
	ScanLimit int
}

// ResolveSeries runs the strategies from strongest to weakest and stops at
// the first that yields anything. Matching is always scoped to the target's
// owner. An empty Series with StrategyNone is a normal result.
func ResolveSeries(ctx context.Context, repo repository.EventRepositoryInterface, target *entity.Event, opts ResolveOptions) (Series, error) {
	limit := opts.ScanLimit
	if limit <= 0 {
		limit = constants.DefaultSeriesScanLimit
	}
	base := repository.EventFilter{OwnerID: target.OwnerID, Limit: limit}
	if opts.FutureOnly {
		from := target.Date
		base.FromDate = &from
	}

	// 1. explicit seriesId column
	if target.SeriesID != nil && *target.SeriesID != "" {
		filter := base
		filter.SeriesID = target.SeriesID
		series, err := collectAll(ctx, repo, filter, nil)
		if err != nil {
			return Series{}, err
		}
		if !series.Empty() {
			return series.as(StrategyDirect), nil
		}
	}

	// 2. structured meta
	if key, value, ok := metaIdentity(target.Meta); ok {
		filter := base
		filter.HasMeta = true
		series, err := collectAll(ctx, repo, filter, func(e *entity.Event) bool {
			v, ok := e.Meta.String(key)
			return ok && v == value
		})
		if err != nil {
			return Series{}, err
		}
		if !series.Empty() {
			return series.as(StrategyMeta), nil
		}
	}

	// 3. legacy "[META]" blocks
	if opts.AllowEmbedded {
		if legacy, ok := ParseLegacyMeta(target.Description); ok {
			key, weak := legacy.Key()
			filter := base
			filter.DescriptionContains = legacyMetaMarker
			series, err := collectAll(ctx, repo, filter, func(e *entity.Event) bool {
				other, ok := ParseLegacyMeta(e.Description)
				if !ok {
					return false
				}
				otherKey, _ := other.Key()
				if otherKey != key {
					return false
				}
				return !weak || e.Title == target.Title
			})
			if err != nil {
				return Series{}, err
			}
			if !series.Empty() {
				return series.as(StrategyEmbedded), nil
			}
		}
	}

	// 4. same title and same time of day
	if opts.AllowHeuristic {
		filter := base
		title := target.Title
		filter.Title = &title
		if target.IsTimed() {
			filter.Time = target.Time
		} else {
			filter.TimeIsNull = true
		}
		series, err := collect(ctx, repo, filter, nil)
		if err != nil {
			return Series{}, err
		}
		if !series.Empty() {
			logger.Info("SeriesResolver:Heuristic", "target_id", target.ID, "matches", series.Len())
			return series.as(StrategyHeuristic), nil
		}
	}

	return Series{Strategy: StrategyNone, ActiveIDs: []string{}, ArchivedIDs: []string{}}, nil
}

func (s Series) as(strategy Strategy) Series {
	s.Strategy = strategy
	return s
}

// metaIdentity picks the series key carried by structured meta.
func metaIdentity(meta entity.JSONB) (key, value string, ok bool) {
	if v, ok := meta.String(entity.MetaKeySeriesID); ok {
		return entity.MetaKeySeriesID, v, true
	}
	if v, ok := meta.String(entity.MetaKeyTemplateID); ok {
		return entity.MetaKeyTemplateID, v, true
	}
	return "", "", false
}

// collect reads one page per collection, bounded by filter.Limit.
func collect(ctx context.Context, repo repository.EventRepositoryInterface, filter repository.EventFilter, match func(*entity.Event) bool) (Series, error) {
	series := Series{ActiveIDs: []string{}, ArchivedIDs: []string{}}

	active, err := repo.FindEvents(ctx, filter)
	if err != nil {
		return Series{}, err
	}
	series.ActiveIDs = appendActive(series.ActiveIDs, active, match)

	archived, err := repo.FindArchived(ctx, filter)
	if err != nil {
		return Series{}, err
	}
	series.ArchivedIDs = appendArchived(series.ArchivedIDs, archived, match)
	return series, nil
}

// collectAll pages through both collections with filter.Limit as the page
// size until each is exhausted.
func collectAll(ctx context.Context, repo repository.EventRepositoryInterface, filter repository.EventFilter, match func(*entity.Event) bool) (Series, error) {
	series := Series{ActiveIDs: []string{}, ArchivedIDs: []string{}}
	pageSize := filter.Limit

	for page := filter; ; page.Offset += pageSize {
		active, err := repo.FindEvents(ctx, page)
		if err != nil {
			return Series{}, err
		}
		series.ActiveIDs = appendActive(series.ActiveIDs, active, match)
		if len(active) < pageSize {
			break
		}
	}

	for page := filter; ; page.Offset += pageSize {
		archived, err := repo.FindArchived(ctx, page)
		if err != nil {
			return Series{}, err
		}
		series.ArchivedIDs = appendArchived(series.ArchivedIDs, archived, match)
		if len(archived) < pageSize {
			break
		}
	}
	return series, nil
}

func appendActive(ids []string, events []entity.Event, match func(*entity.Event) bool) []string {
	for i := range events {
		if match == nil || match(&events[i]) {
			ids = append(ids, events[i].ID)
		}
	}
	return ids
}

func appendArchived(ids []string, archived []entity.ArchivedEvent, match func(*entity.Event) bool) []string {
	for i := range archived {
		if match == nil || match(&archived[i].Event) {
			ids = append(ids, archived[i].ID)
		}
	}
	return ids
}
