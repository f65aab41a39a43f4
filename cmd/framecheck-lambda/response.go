// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
)

const defaultStatusCode = -1

// ProxyResponseWriter implements http.ResponseWriter and collects the
// handler's output into an ALB target group response.
type ProxyResponseWriter struct {
	headers http.Header
	body    bytes.Buffer
	status  int
}

func NewProxyResponseWriter() *ProxyResponseWriter {
	return &ProxyResponseWriter{
		headers: make(http.Header),
		status:  defaultStatusCode,
	}
}

func (r *ProxyResponseWriter) Header() http.Header {
	return r.headers
}

func (r *ProxyResponseWriter) Write(body []byte) (int, error) {
	if r.status == defaultStatusCode {
		r.status = http.StatusOK
	}
	return r.body.Write(body)
}

func (r *ProxyResponseWriter) WriteHeader(status int) {
	r.status = status
}

// GetProxyResponse converts what the handler wrote into the event the
// ALB expects back. Non-text bodies travel base64-encoded.
func (r *ProxyResponseWriter) GetProxyResponse() (events.ALBTargetGroupResponse, error) {
	if r.status == defaultStatusCode {
		return events.ALBTargetGroupResponse{}, errors.New("status code not set on response")
	}

	output := r.body.String()
	isBase64 := false
	if !utf8.ValidString(output) {
		output = base64.StdEncoding.EncodeToString(r.body.Bytes())
		isBase64 = true
	}

	headers := make(map[string]string, len(r.headers))
	for key := range r.headers {
		headers[key] = r.headers.Get(key)
	}

	return events.ALBTargetGroupResponse{
		StatusCode:        r.status,
		StatusDescription: http.StatusText(r.status),
		Headers:           headers,
		Body:              output,
		IsBase64Encoded:   isBase64,
	}, nil
}
