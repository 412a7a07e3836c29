package client

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	pkgerrors "github.com/pkg/errors"
)

// newRestyClient 构建中继 HTTP 客户端。
// resty 自动读取 HTTP_PROXY / HTTPS_PROXY 环境变量；
// 请求级超时由调用方的 context 控制，这里只设置兜底超时。
func newRestyClient(host string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimSuffix(host, "/")).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "*/*").
		SetHeader("Connection", "keep-alive").
		SetHeader("User-Agent", "gofill-relay-client").
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			// 429 限流时尊重 Retry-After 头
			if resp.StatusCode() == 429 {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if d, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return d, nil
					}
				}
				return 10 * time.Second, nil
			}
			return 0, nil
		})
}

// execute 发出请求并把结果规整为 APIError 分类。
// 非 2xx 响应体原样进 Message——中继的报错原话必须完整保留。
func execute(ctx context.Context, req *resty.Request, method, endpoint string) (*resty.Response, error) {
	req.SetContext(ctx)

	var resp *resty.Response
	var err error
	switch method {
	case "GET":
		resp, err = req.Get(endpoint)
	case "POST":
		resp, err = req.Post(endpoint)
	default:
		return nil, validationErr("不支持的方法: %s", method)
	}
	if err != nil {
		return nil, networkErr(pkgerrors.Wrapf(err, "%s %s", method, endpoint))
	}
	if resp.IsSuccess() {
		return resp, nil
	}

	kind := KindRelay
	if resp.StatusCode() == 404 {
		kind = KindNotFound
	}
	return resp, &APIError{
		Kind:    kind,
		Status:  resp.StatusCode(),
		Message: strings.TrimSpace(string(resp.Body())),
	}
}
