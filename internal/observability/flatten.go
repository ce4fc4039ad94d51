package observability

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/tuncerburak97/gozlem/internal/model"
)

// GroupQuery merges repeated query keys. A key seen once keeps its string
// value; a key seen several times becomes the ordered []string of all its
// values. Keys keep the position of their first occurrence.
func GroupQuery(pairs []model.Field) []model.Field {
	index := make(map[string]int, len(pairs))
	grouped := make([]model.Field, 0, len(pairs))
	for _, p := range pairs {
		value := stringValue(p.Value)
		i, seen := index[p.Key]
		if !seen {
			index[p.Key] = len(grouped)
			grouped = append(grouped, model.Field{Key: p.Key, Value: value})
			continue
		}
		switch existing := grouped[i].Value.(type) {
		case string:
			grouped[i].Value = []string{existing, value}
		case []string:
			grouped[i].Value = append(existing, value)
		}
	}
	return grouped
}

// GroupHeaders lower-cases header names and joins repeated headers with
// ", " so that every header maps to a single string.
func GroupHeaders(pairs []model.Field) []model.Field {
	index := make(map[string]int, len(pairs))
	grouped := make([]model.Field, 0, len(pairs))
	for _, p := range pairs {
		name := strings.ToLower(p.Key)
		value := stringValue(p.Value)
		if i, seen := index[name]; seen {
			grouped[i].Value = grouped[i].Value.(string) + ", " + value
			continue
		}
		index[name] = len(grouped)
		grouped = append(grouped, model.Field{Key: name, Value: value})
	}
	return grouped
}

// ValuesPairs turns url.Values into pairs. Maps lose arrival order between
// keys, so keys are sorted; values of a key keep their order.
func ValuesPairs(values url.Values) []model.Field {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []model.Field
	for _, k := range keys {
		for _, v := range values[k] {
			pairs = append(pairs, model.Field{Key: k, Value: v})
		}
	}
	return pairs
}

// HeaderPairs turns an http.Header into pairs sorted by name.
func HeaderPairs(header http.Header) []model.Field {
	return ValuesPairs(url.Values(header))
}

func prefixed(prefix string, fields []model.Field) []model.Field {
	out := make([]model.Field, len(fields))
	for i, f := range fields {
		out[i] = model.Field{Key: prefix + f.Key, Value: f.Value}
	}
	return out
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}
