// Package summary はダッシュボード表示用の集計関数を提供する。
// すべて純粋関数で、引数のスライスを変更しない。
package summary

import (
	"math"
	"slices"
	"strings"

	"github.com/hitoshi/wikidash/internal/model"
)

// maxMostEditedArticles は最多編集記事ランキングの件数。
const maxMostEditedArticles = 10

// CompletedQualityStatuses は重点分野の進捗で「完了」とみなす品質評価。
var CompletedQualityStatuses = map[string]struct{}{
	"FA": {},
	"A":  {},
	"GA": {},
}

// SummarizeDrafts は下書きを状態別に集計する。
// 5つの報告対象状態は0件でも必ず含まれ、abandonedは存在する場合のみ同じ規則で数える。
func SummarizeDrafts(drafts []model.Draft) model.DraftSummary {
	byStatus := make(map[model.DraftStatus]int, len(model.ReportableDraftStatuses)+1)
	for _, s := range model.ReportableDraftStatuses {
		byStatus[s] = 0
	}
	for _, d := range drafts {
		byStatus[d.Status()]++
	}
	return model.DraftSummary{
		Total:    len(drafts),
		ByStatus: byStatus,
	}
}

// SummarizeContributions は投稿履歴を集計する。
// TotalBytesAddedは正の差分のみを合計し、削除（負の差分）は含めない。
// MostEditedArticlesは編集回数の降順、同数は初出順で上位10件。
func SummarizeContributions(contributions []model.Contribution) model.ContributionSummary {
	byType := make(map[model.ContributionType]int, len(model.AllContributionTypes))
	for _, t := range model.AllContributionTypes {
		byType[t] = 0
	}

	var bytesAdded int
	counts := make(map[string]int)
	var order []string

	for _, c := range contributions {
		byType[c.Type]++
		if c.ByteDiff > 0 {
			bytesAdded += c.ByteDiff
		}
		if _, seen := counts[c.ArticleTitle]; !seen {
			order = append(order, c.ArticleTitle)
		}
		counts[c.ArticleTitle]++
	}

	ranking := make([]model.ArticleEditCount, len(order))
	for i, title := range order {
		ranking[i] = model.ArticleEditCount{Title: title, Count: counts[title]}
	}
	slices.SortStableFunc(ranking, func(a, b model.ArticleEditCount) int {
		return b.Count - a.Count
	})
	if len(ranking) > maxMostEditedArticles {
		ranking = ranking[:maxMostEditedArticles]
	}

	return model.ContributionSummary{
		TotalEdits:         len(contributions),
		TotalBytesAdded:    bytesAdded,
		ByType:             byType,
		MostEditedArticles: ranking,
	}
}

// FilterTasks は条件に一致するタスクを元の順序で返す。
// 条件はAND結合で、未指定のフィールドは条件なしとして扱う。
// Searchはタイトルまたは説明文に対する大文字小文字を区別しない部分一致。
func FilterTasks(tasks []model.Task, filter model.TaskFilter) []model.Task {
	search := strings.ToLower(filter.Search)

	result := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		result = append(result, t)
	}
	return result
}

// SortTasksByPriority はhigh → medium → lowの順に並べた新しいスライスを返す。
// 同じ優先度の中では元の順序を保つ。
func SortTasksByPriority(tasks []model.Task) []model.Task {
	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, func(a, b model.Task) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})
	return sorted
}

// CalculateFocusAreaProgress は重点分野ごとの進捗率を計算する。
// 記事が0件の分野は0%とする。
func CalculateFocusAreaProgress(areas []model.FocusArea) []model.FocusAreaProgress {
	result := make([]model.FocusAreaProgress, 0, len(areas))
	for _, area := range areas {
		total := len(area.Articles)
		completed := 0
		for _, a := range area.Articles {
			if IsCompletedQuality(a.QualityStatus) {
				completed++
			}
		}

		percent := 0
		if total > 0 {
			percent = int(math.Round(float64(completed) / float64(total) * 100))
		}

		result = append(result, model.FocusAreaProgress{
			Area:              area,
			TotalArticles:     total,
			CompletedArticles: completed,
			ProgressPercent:   percent,
		})
	}
	return result
}

// IsCompletedQuality は品質評価が完了扱いの階層に含まれるかを返す。
func IsCompletedQuality(status string) bool {
	_, ok := CompletedQualityStatuses[status]
	return ok
}

// CountOpenTasks は未完了のタスク数を返す。
func CountOpenTasks(tasks []model.Task) int {
	n := 0
	for _, t := range tasks {
		if t.Status != model.TaskCompleted {
			n++
		}
	}
	return n
}

// CountActiveFocusAreas はactive状態の重点分野数を返す。
func CountActiveFocusAreas(areas []model.FocusArea) int {
	n := 0
	for _, a := range areas {
		if a.Status == model.FocusAreaActive {
			n++
		}
	}
	return n
}
