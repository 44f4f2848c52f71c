package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"strings"
)

// CloneVariables returns a copy of the static variables that callers may
// extend with per-request values
func (op Operation) CloneVariables() map[string]any {
	variables := make(map[string]any, len(op.Variables)+3)
	maps.Copy(variables, op.Variables)
	return variables
}

// GraphQLURL encodes variables, features and field toggles as JSON query
// parameters on the operation endpoint
func (op Operation) GraphQLURL(variables map[string]any) (string, error) {
	u, err := url.Parse(op.Endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to parse endpoint: %w", err)
	}

	q := u.Query()

	params := []struct {
		name  string
		value map[string]any
	}{
		{"variables", variables},
		{"features", op.Features},
		{"fieldToggles", op.FieldToggles},
	}

	for _, p := range params {
		if len(p.value) == 0 {
			continue
		}
		encoded, err := json.Marshal(p.value)
		if err != nil {
			return "", fmt.Errorf("failed to encode %s: %w", p.name, err)
		}
		q.Set(p.name, string(encoded))
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// MediaURL substitutes the media key into the endpoint path
func (op Operation) MediaURL(mediaKey string) string {
	return strings.ReplaceAll(op.Endpoint, MediaKeyPlaceholder, url.PathEscape(mediaKey))
}
