package httpclient

import (
	"fmt"
	"sort"
	"strings"
)

// redacted replaces credential header values in generated cURL commands.
const redacted = "***"

// sensitiveHeaders are never printed verbatim.
var sensitiveHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
}

// generateCurlCommand creates a cURL command equivalent for the given request.
//
// Credential headers are redacted so the command can be logged safely.
//
// Example output:
//
//	curl -X POST 'https://api.example.com/orders' \
//	  -H 'Authorization: ***' \
//	  -H 'Content-Type: application/json' \
//	  -d '{"sku":"X1"}'
func generateCurlCommand(req *OutboundRequest) string {
	var parts []string

	parts = append(parts, "curl")

	if req.Method != "GET" {
		parts = append(parts, "-X", req.Method)
	}

	parts = append(parts, fmt.Sprintf("'%s'", req.URL))

	// Headers (sorted for consistent output)
	headerKeys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		headerKeys = append(headerKeys, k)
	}
	sort.Strings(headerKeys)

	for _, k := range headerKeys {
		for _, v := range req.Header[k] {
			if sensitiveHeaders[k] {
				v = redacted
			}
			parts = append(parts, "-H", fmt.Sprintf("'%s: %s'", k, v))
		}
	}

	if len(req.Body) > 0 {
		bodyStr := strings.ReplaceAll(string(req.Body), "'", "'\\''")
		parts = append(parts, "-d", fmt.Sprintf("'%s'", bodyStr))
	}

	return strings.Join(parts, " ")
}
