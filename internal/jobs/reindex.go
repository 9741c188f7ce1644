package jobs

import (
	"context"
	"errors"

	search "anoa.com/yamdb/internal/modules/search/service"
	titleRepo "anoa.com/yamdb/internal/modules/title/repository"
	"anoa.com/yamdb/pkg/dto"
	"github.com/rs/zerolog/log"
)

const ReindexTitlesJob = "reindex-titles"

// ReindexTitles pushes every title into the search index. Index writes on the
// request path are best effort, so this job repairs whatever they missed.
type ReindexTitles struct {
	titles   titleRepo.TitleRepository
	index    search.TitleIndex
	schedule string
}

func NewReindexTitles(titles titleRepo.TitleRepository, index search.TitleIndex, schedule string) *ReindexTitles {
	return &ReindexTitles{titles: titles, index: index, schedule: schedule}
}

func (j *ReindexTitles) Name() string     { return ReindexTitlesJob }
func (j *ReindexTitles) Schedule() string { return j.schedule }

func (j *ReindexTitles) Run(ctx context.Context) error {
	var (
		errs    []error
		indexed int
	)

	page := dto.PaginationQuery{Page: 1, Limit: dto.MaxLimit}
	for {
		titles, total, err := j.titles.FindAll(ctx, titleRepo.Filter{}, page)
		if err != nil {
			return err
		}

		for _, t := range titles {
			if err := j.index.IndexTitle(ctx, t); err != nil {
				errs = append(errs, err)
				continue
			}
			indexed++
		}

		if len(titles) == 0 || int64(page.Offset()+len(titles)) >= total {
			break
		}
		page.Page++
	}

	log.Ctx(ctx).Info().Int("indexed", indexed).Int("failed", len(errs)).Msg("titles reindexed")
	return errors.Join(errs...)
}
