package middleware

import (
	"bytes"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/services"
)

// AuditLog records admin write operations (POST/PUT/DELETE) to system_logs.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		// Only audit write operations
		if method != "POST" && method != "PUT" && method != "DELETE" {
			c.Next()
			return
		}

		// Capture request body (up to 2000 chars for Extra)
		var bodySnippet string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = string(bodyBytes)
			if len(bodySnippet) > 2000 {
				bodySnippet = bodySnippet[:2000] + "...[truncated]"
			}
			bodySnippet = maskSensitiveFields(bodySnippet)
		}

		c.Next()

		// After handler — record audit log
		userID := GetUserID(c)
		email := GetEmail(c)
		status := c.Writer.Status()

		module, action := parseRouteInfo(c.FullPath(), method)

		var uid *uint
		if userID > 0 {
			uid = &userID
		}

		services.LogInfo(module, action, email+" "+method+" "+c.Request.URL.Path, uid,
			c.ClientIP(), c.Request.UserAgent(), map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   bodySnippet,
				"audit":  true,
			})
	}
}

// parseRouteInfo extracts module and action from a Gin route pattern.
// e.g. "/api/teams/:id/invites" + "POST" → module="teams", action="create"
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")
	path = strings.TrimPrefix(path, "admin/")

	parts := strings.SplitN(path, "/", 2)
	module = parts[0]
	if module == "" {
		module = "unknown"
	}

	switch method {
	case "POST":
		action = "create"
	case "PUT":
		action = "update"
	case "DELETE":
		action = "delete"
	default:
		action = strings.ToLower(method)
	}
	return module, action
}

// maskSensitiveFields blanks secret-bearing JSON fields in audit snippets.
func maskSensitiveFields(body string) string {
	for _, field := range []string{"password", "api_key", "old_password", "new_password"} {
		idx := 0
		for {
			i := strings.Index(body[idx:], `"`+field+`"`)
			if i == -1 {
				break
			}
			start := idx + i
			colon := strings.Index(body[start:], ":")
			if colon == -1 {
				break
			}
			valStart := start + colon + 1
			// Skip whitespace and opening quote
			for valStart < len(body) && (body[valStart] == ' ' || body[valStart] == '"') {
				valStart++
			}
			valEnd := valStart
			for valEnd < len(body) && body[valEnd] != '"' && body[valEnd] != ',' && body[valEnd] != '}' {
				valEnd++
			}
			body = body[:valStart] + "****" + body[valEnd:]
			idx = valStart + 4
		}
	}
	return body
}
