package wikiapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/wikidash/internal/model"
)

// DefaultXToolsEndpoint はXTools APIのベースURL。
const DefaultXToolsEndpoint = "https://xtools.wmcloud.org/api"

// XToolsClient はXTools APIのクライアント。
// 削除済み版を含む編集数を取得する。
type XToolsClient struct {
	req      requester
	endpoint string
	project  string
}

// NewXToolsClient はXToolsClientの新しいインスタンスを生成する。
// projectは対象ウィキのホスト名（例: en.wikipedia.org）。
func NewXToolsClient(httpClient *http.Client, logger *slog.Logger, endpoint, project string, opts Options) *XToolsClient {
	if endpoint == "" {
		endpoint = DefaultXToolsEndpoint
	}
	return &XToolsClient{
		req:      newRequester(httpClient, logger, SourceXTools, opts),
		endpoint: strings.TrimRight(endpoint, "/"),
		project:  project,
	}
}

type simpleEditCountResponse struct {
	Username         string `json:"username"`
	LiveEditCount    int    `json:"live_edit_count"`
	DeletedEditCount int    `json:"deleted_edit_count"`
	Error            string `json:"error"`
}

// GetEditorStats は編集者の編集数統計を取得する。
// XToolsが404を返した場合はUSER_NOT_FOUNDを返す。
func (c *XToolsClient) GetEditorStats(ctx context.Context, username string) (*model.EditorStats, error) {
	reqURL := c.endpoint + "/user/simple_editcount/" + url.PathEscape(c.project) + "/" + url.PathEscape(username)

	var resp simpleEditCountResponse
	if err := c.req.getJSON(ctx, reqURL, &resp); err != nil {
		if err == errNotFound {
			return nil, model.NewUserNotFoundError(username)
		}
		return nil, err
	}
	if resp.Error != "" {
		return nil, model.NewUpstreamUnavailableError(SourceXTools, resp.Error)
	}

	name := resp.Username
	if name == "" {
		name = username
	}
	return &model.EditorStats{
		Username:         name,
		LiveEditCount:    resp.LiveEditCount,
		DeletedEditCount: resp.DeletedEditCount,
		TotalEditCount:   resp.LiveEditCount + resp.DeletedEditCount,
	}, nil
}
