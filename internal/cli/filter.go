package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/Vaishaal/expdb/pkg/models"
)

// timeRange is an inclusive creation-time window. A nil bound is open.
type timeRange struct {
	after  *time.Time
	before *time.Time
}

// parseTimeRange builds a range from the --after/--before flag values.
// Dates are parsed leniently and normalized to UTC.
func parseTimeRange(afterTxt, beforeTxt string) (timeRange, error) {
	var r timeRange
	if afterTxt != "" {
		t, err := dateparse.ParseIn(afterTxt, time.UTC)
		if err != nil {
			return r, fmt.Errorf("invalid --after date %q: %w", afterTxt, err)
		}
		t = t.UTC()
		r.after = &t
	}
	if beforeTxt != "" {
		t, err := dateparse.ParseIn(beforeTxt, time.UTC)
		if err != nil {
			return r, fmt.Errorf("invalid --before date %q: %w", beforeTxt, err)
		}
		t = t.UTC()
		r.before = &t
	}
	return r, nil
}

func (r timeRange) isSet() bool {
	return r.after != nil || r.before != nil
}

func (r timeRange) contains(t time.Time) bool {
	t = t.UTC()
	if r.after != nil && t.Before(*r.after) {
		return false
	}
	if r.before != nil && t.After(*r.before) {
		return false
	}
	return true
}

// splitList turns a comma-separated flag value into its non-empty parts.
func splitList(value string) []string {
	var parts []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// dataLines renders a metadata map with sorted keys, optionally restricted
// to the given fields, one "key: value" line per entry.
func dataLines(data models.Data, filterFields []string) []string {
	keep := func(string) bool { return true }
	if filterFields != nil {
		allowed := make(map[string]bool, len(filterFields))
		for _, f := range filterFields {
			allowed[f] = true
		}
		keep = func(k string) bool { return allowed[k] }
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		if keep(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, data[k]))
	}
	return lines
}
