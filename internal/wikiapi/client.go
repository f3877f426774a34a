package wikiapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/wikidash/internal/model"
)

const (
	// DefaultEndpoint は英語版WikipediaのAction APIエンドポイント。
	DefaultEndpoint = "https://en.wikipedia.org/w/api.php"

	// maxContribLimit はusercontribsで1回に取得できる最大件数。
	maxContribLimit = 500
)

// Client はMediaWiki Action APIのクライアント。
type Client struct {
	req      requester
	endpoint string
}

// NewClient はClientの新しいインスタンスを生成する。
// endpointが空の場合はDefaultEndpointを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, endpoint string, opts Options) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		req:      newRequester(httpClient, logger, SourceMediaWiki, opts),
		endpoint: endpoint,
	}
}

// apiError はAction APIがステータス200で返すエラー本文。
type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type usersResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		Users []struct {
			UserID       int64    `json:"userid"`
			Name         string   `json:"name"`
			EditCount    int      `json:"editcount"`
			Registration string   `json:"registration"`
			Groups       []string `json:"groups"`
			Missing      bool     `json:"missing"`
			Invalid      bool     `json:"invalid"`
		} `json:"users"`
	} `json:"query"`
}

// GetUserProfile は編集者のプロフィールを取得する。
// 上流に存在しないユーザーの場合はUSER_NOT_FOUNDを返す。
func (c *Client) GetUserProfile(ctx context.Context, username string) (*model.WikiUser, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "users")
	q.Set("ususers", username)
	q.Set("usprop", "editcount|registration|groups")

	var resp usersResponse
	if err := c.get(ctx, q, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, model.NewUpstreamUnavailableError(SourceMediaWiki, resp.Error.Code+": "+resp.Error.Info)
	}
	if len(resp.Query.Users) == 0 {
		return nil, model.NewUserNotFoundError(username)
	}

	u := resp.Query.Users[0]
	if u.Missing || u.Invalid {
		return nil, model.NewUserNotFoundError(username)
	}

	user := &model.WikiUser{
		Username:  u.Name,
		UserID:    u.UserID,
		EditCount: u.EditCount,
		Groups:    u.Groups,
	}
	if u.Registration != "" {
		if t, err := time.Parse(time.RFC3339, u.Registration); err == nil {
			user.RegisteredAt = &t
		}
	}
	return user, nil
}

type contribsResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		UserContribs []struct {
			RevID     int64    `json:"revid"`
			ParentID  int64    `json:"parentid"`
			NS        int      `json:"ns"`
			Title     string   `json:"title"`
			Timestamp string   `json:"timestamp"`
			Comment   string   `json:"comment"`
			SizeDiff  int      `json:"sizediff"`
			Minor     bool     `json:"minor"`
			Tags      []string `json:"tags"`
		} `json:"usercontribs"`
	} `json:"query"`
}

// GetRecentEdits は編集者の直近の編集を新しい順に取得する。
// limitは1から500の範囲に丸める。
func (c *Client) GetRecentEdits(ctx context.Context, username string, limit int) ([]model.RawEdit, error) {
	limit = min(max(limit, 1), maxContribLimit)

	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "usercontribs")
	q.Set("ucuser", username)
	q.Set("uclimit", strconv.Itoa(limit))
	q.Set("ucprop", "ids|title|timestamp|comment|size|sizediff|flags|tags")

	var resp contribsResponse
	if err := c.get(ctx, q, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, model.NewUpstreamUnavailableError(SourceMediaWiki, resp.Error.Code+": "+resp.Error.Info)
	}

	edits := make([]model.RawEdit, 0, len(resp.Query.UserContribs))
	for _, uc := range resp.Query.UserContribs {
		ts, err := time.Parse(time.RFC3339, uc.Timestamp)
		if err != nil {
			c.req.logger.Warn("タイムスタンプのパースに失敗したため編集をスキップしました",
				slog.Int64("rev_id", uc.RevID),
				slog.String("timestamp", uc.Timestamp),
			)
			continue
		}
		edits = append(edits, model.RawEdit{
			RevID:     uc.RevID,
			Title:     uc.Title,
			Namespace: uc.NS,
			Timestamp: ts,
			SizeDiff:  uc.SizeDiff,
			ParentID:  uc.ParentID,
			Tags:      uc.Tags,
			Minor:     uc.Minor,
			Comment:   uc.Comment,
		})
	}
	return edits, nil
}

// get は共通パラメータを付与してAction APIを呼び出す。
func (c *Client) get(ctx context.Context, q url.Values, out any) error {
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}
	q.Set("format", "json")
	q.Set("formatversion", "2")
	reqURL.RawQuery = q.Encode()

	if err := c.req.getJSON(ctx, reqURL.String(), out); err != nil {
		if err == errNotFound {
			return model.NewUpstreamUnavailableError(SourceMediaWiki, "エンドポイントが見つかりません")
		}
		return err
	}
	return nil
}
