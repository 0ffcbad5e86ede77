package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/services"
	"github.com/gin-gonic/gin"
)

const auditBodyLimit = 2000

// AuditLog records admin writes (POST/PUT/DELETE) to system_logs.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodDelete {
			c.Next()
			return
		}

		var bodySnippet string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = string(bodyBytes)
			if len(bodySnippet) > auditBodyLimit {
				bodySnippet = bodySnippet[:auditBodyLimit] + "...[truncated]"
			}
			bodySnippet = maskSensitiveFields(bodySnippet)
		}

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)
		message := formatAuditMessage(GetUsername(c), method, c.Request.URL.Path, status)

		extra := map[string]interface{}{
			"method":     method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"body":       bodySnippet,
			"request_id": c.GetString("request_id"),
			"audit":      true,
		}

		if status >= http.StatusBadRequest {
			services.LogWarning(module, action, message, GetUserIDPtr(c), c.ClientIP(), c.Request.UserAgent(), extra)
			return
		}
		services.LogInfo(module, action, message, GetUserIDPtr(c), c.ClientIP(), c.Request.UserAgent(), extra)
	}
}

// parseRouteInfo maps a route pattern to a module and action, e.g.
// "/api/completion-rules/:id" + DELETE -> ("completion_rules", "delete").
// Sub-resource routes name the action after the last static segment, so
// "/api/checklists/:id/evaluate" + POST -> ("checklists", "evaluate").
func parseRouteInfo(fullPath, method string) (module, action string) {
	segments := strings.Split(strings.TrimPrefix(fullPath, "/api/"), "/")

	module = strings.ReplaceAll(segments[0], "-", "_")
	if module == "" {
		module = "unknown"
	}

	switch method {
	case http.MethodPost:
		action = "create"
	case http.MethodPut:
		action = "update"
	case http.MethodDelete:
		action = "delete"
	default:
		action = strings.ToLower(method)
	}

	if len(segments) > 1 {
		last := segments[len(segments)-1]
		if last != "" && !strings.HasPrefix(last, ":") {
			action = strings.ReplaceAll(last, "-", "_")
		}
	}
	return module, action
}

func formatAuditMessage(username, method, path string, status int) string {
	outcome := "OK"
	if status < 200 || status >= 300 {
		outcome = fmt.Sprintf("failed (%d)", status)
	}
	if username == "" {
		username = "anonymous"
	}
	return fmt.Sprintf("[Audit] %s %s %s: %s", username, method, path, outcome)
}

// maskSensitiveFields blanks string values of credential-like JSON keys.
func maskSensitiveFields(body string) string {
	for _, key := range []string{"password", "secret", "token", "access_token"} {
		body = maskJSONValue(body, key)
	}
	return body
}

func maskJSONValue(body, key string) string {
	lower := strings.ToLower(body)
	quoted := `"` + key + `"`
	idx := strings.Index(lower, quoted)
	if idx == -1 {
		return body
	}

	rest := idx + len(quoted)
	colonIdx := strings.Index(body[rest:], ":")
	if colonIdx == -1 {
		return body
	}
	valueStart := rest + colonIdx + 1
	for valueStart < len(body) && (body[valueStart] == ' ' || body[valueStart] == '\t') {
		valueStart++
	}
	if valueStart >= len(body) || body[valueStart] != '"' {
		return body
	}

	endQuote := strings.Index(body[valueStart+1:], `"`)
	if endQuote == -1 {
		return body
	}
	return body[:valueStart+1] + "***" + body[valueStart+1+endQuote:]
}
