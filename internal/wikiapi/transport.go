// Package wikiapi はMediaWiki APIとXTools APIのクライアントを提供する。
// 編集者プロフィール、投稿履歴、編集数統計を取得する。
package wikiapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/wikidash/internal/metrics"
	"github.com/hitoshi/wikidash/internal/model"
)

const (
	// SourceMediaWiki はMediaWiki APIを表す上流名。
	SourceMediaWiki = "mediawiki"
	// SourceXTools はXTools APIを表す上流名。
	SourceXTools = "xtools"

	// maxResponseSize はレスポンスボディの読み取り上限（5MB）。
	maxResponseSize = 5 * 1024 * 1024
)

// errNotFound はステータス404を表す内部エラー。
var errNotFound = errors.New("upstream returned 404")

// Options はクライアント共通の設定。
type Options struct {
	UserAgent string
	// Limiter は上流へのリクエスト間隔を制御する。nilの場合は制御しない。
	Limiter *rate.Limiter
	// Metrics がnilの場合は記録しない。
	Metrics metrics.MetricsCollector
}

// requester はGETリクエストの送信とJSONデコードを行う共通処理。
type requester struct {
	httpClient *http.Client
	logger     *slog.Logger
	source     string
	userAgent  string
	limiter    *rate.Limiter
	metrics    metrics.MetricsCollector
}

func newRequester(httpClient *http.Client, logger *slog.Logger, source string, opts Options) requester {
	m := opts.Metrics
	if m == nil {
		m = metrics.Nop{}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "wikidash/1.0"
	}
	return requester{
		httpClient: httpClient,
		logger:     logger,
		source:     source,
		userAgent:  ua,
		limiter:    opts.Limiter,
		metrics:    m,
	}
}

// getJSON はreqURLにGETリクエストを送り、レスポンスをoutにデコードする。
// 404の場合はerrNotFound、それ以外の失敗はUPSTREAM_UNAVAILABLEを返す。
func (r requester) getJSON(ctx context.Context, reqURL string, out any) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return model.NewUpstreamUnavailableError(r.source, err.Error())
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	r.metrics.RecordUpstreamLatency(r.source, time.Since(start))
	if err != nil {
		r.metrics.RecordUpstreamFailure(r.source)
		r.logger.Error("上流APIの呼び出しに失敗しました",
			slog.String("source", r.source),
			slog.String("error", err.Error()),
		)
		return model.NewUpstreamUnavailableError(r.source, err.Error())
	}
	defer resp.Body.Close()

	r.metrics.RecordUpstreamStatus(r.source, resp.StatusCode)

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		r.metrics.RecordUpstreamFailure(r.source)
		r.logger.Error("上流APIがエラーステータスを返しました",
			slog.String("source", r.source),
			slog.Int("http_status", resp.StatusCode),
		)
		return model.NewUpstreamUnavailableError(r.source, fmt.Sprintf("ステータス %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		r.metrics.RecordUpstreamFailure(r.source)
		return model.NewUpstreamUnavailableError(r.source, "レスポンスボディの読み取りに失敗しました")
	}

	if err := json.Unmarshal(body, out); err != nil {
		r.metrics.RecordUpstreamFailure(r.source)
		r.logger.Error("上流APIのレスポンスのパースに失敗しました",
			slog.String("source", r.source),
			slog.String("error", err.Error()),
		)
		return model.NewUpstreamUnavailableError(r.source, "レスポンスJSONのパースに失敗しました")
	}

	return nil
}
