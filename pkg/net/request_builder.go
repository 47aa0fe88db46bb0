package net

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// BuildRequest 通用请求构建器
// query 会追加到 rawURL 已有的查询参数之后
func BuildRequest(ctx context.Context, method, rawURL string, query url.Values, body io.Reader) (*http.Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// BuildGetRequest 构建 GET 请求
func BuildGetRequest(ctx context.Context, rawURL string, query url.Values) (*http.Request, error) {
	return BuildRequest(ctx, http.MethodGet, rawURL, query, nil)
}
