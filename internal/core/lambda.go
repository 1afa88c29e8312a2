package core

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// FunctionURLHandler is the Lambda entry signature for function URL events.
type FunctionURLHandler func(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error)

// NewFunctionURLHandler serves Lambda function URL events through h so the
// same router runs locally and in Lambda.
func NewFunctionURLHandler(h http.Handler) FunctionURLHandler {
	return func(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
		httpReq, err := toHTTPRequest(ctx, req)
		if err != nil {
			return events.LambdaFunctionURLResponse{}, err
		}

		rec := newBufferedResponse()
		h.ServeHTTP(rec, httpReq)
		return rec.toFunctionURLResponse(), nil
	}
}

func toHTTPRequest(ctx context.Context, req events.LambdaFunctionURLRequest) (*http.Request, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, fmt.Errorf("decode function url body: %w", err)
		}
		body = decoded
	}

	path := req.RawPath
	if path == "" {
		path = "/"
	}
	target := path
	if req.RawQueryString != "" {
		target += "?" + req.RawQueryString
	}

	method := req.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	for _, c := range req.Cookies {
		httpReq.Header.Add("Cookie", c)
	}
	if ip := req.RequestContext.HTTP.SourceIP; ip != "" {
		httpReq.RemoteAddr = ip
	}
	if req.RequestContext.RequestID != "" && httpReq.Header.Get("X-Request-Id") == "" {
		httpReq.Header.Set("X-Request-Id", req.RequestContext.RequestID)
	}
	return httpReq, nil
}

// bufferedResponse holds the whole response until the handler returns.
type bufferedResponse struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
	written    bool
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), statusCode: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(code int) {
	if !b.written {
		b.statusCode = code
		b.written = true
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.written = true
	return b.body.Write(p)
}

func (b *bufferedResponse) toFunctionURLResponse() events.LambdaFunctionURLResponse {
	headers := make(map[string]string, len(b.header))
	var cookies []string
	for k, v := range b.header {
		if http.CanonicalHeaderKey(k) == "Set-Cookie" {
			cookies = append(cookies, v...)
			continue
		}
		headers[k] = strings.Join(v, ", ")
	}
	return events.LambdaFunctionURLResponse{
		StatusCode: b.statusCode,
		Headers:    headers,
		Body:       b.body.String(),
		Cookies:    cookies,
	}
}
