// Package lineprotocol parses and formats the newline-delimited text format
// accepted on the ingest socket.
//
// Two spellings of the same observation are understood:
//
//	http_requests_total{method="post",code="200"} 789 1745825678238
//	cpu,region=us-ashburn-1 usage=5 1556813561098
//
// The first one is the Prometheus exposition style, the second one is the
// InfluxDB line protocol restricted to a single integer field.
package lineprotocol

import (
	"strconv"
	"strings"

	"github.com/sbilibin2017/telemetry-sidecar/internal/models"
)

// valueBits limits values and timestamps to the signed 64-bit range the queue
// can store.
const valueBits = 63

// Parse builds a metric from a single line without its trailing newline.
//
// The line must consist of two or three whitespace separated tokens:
// the name with an optional tag set, the value and an optional timestamp.
// Errors are *ParseError values wrapping one of the Err* sentinels.
func Parse(line string) (*models.Metric, error) {
	parts := strings.Fields(line)
	if len(parts) != 2 && len(parts) != 3 {
		return nil, newParseError(line, ErrMalformedLine)
	}

	metric := &models.Metric{Tags: models.Tags{}}

	head := parts[0]
	switch {
	case strings.Contains(head, "{"):
		name, tags, err := parseBracedHead(head)
		if err != nil {
			return nil, newParseError(line, err)
		}
		metric.Name, metric.Tags = name, tags
	case strings.Contains(head, ","):
		name, rest, _ := strings.Cut(head, ",")
		if tags, err := parseTags(rest); err == nil {
			metric.Name, metric.Tags = name, tags
		} else {
			// Not an influx tag set, so the comma belongs to the name.
			metric.Name = head
		}
	default:
		metric.Name = head
	}

	// Checked only once the tag set has been stripped, so "{a=\"b\"} 1"
	// reports a missing name rather than a tag problem.
	if metric.Name == "" {
		return nil, newParseError(line, ErrMissingName)
	}

	field, value, err := parseValue(parts[1])
	if err != nil {
		return nil, newParseError(line, err)
	}
	metric.Field, metric.Value = field, value

	if len(parts) == 3 {
		ts, err := strconv.ParseUint(parts[2], 10, valueBits)
		if err != nil {
			return nil, newParseError(line, ErrInvalidTimestamp)
		}
		metric.Timestamp = &ts
	}

	return metric, nil
}

// parseBracedHead splits `name{k="v",...}` into the name and its tags.
// The closing brace is looked up from the end of the token.
func parseBracedHead(head string) (string, models.Tags, error) {
	start := strings.Index(head, "{")
	end := strings.LastIndex(head, "}")
	if end < start {
		return "", nil, ErrUnterminatedTags
	}

	tags, err := parseTags(head[start+1 : end])
	if err != nil {
		return "", nil, err
	}

	return head[:start], tags, nil
}

// parseTags parses a comma separated list of key=value pairs.
func parseTags(content string) (models.Tags, error) {
	tags := models.Tags{}
	if content == "" {
		return tags, nil
	}

	for _, pair := range strings.Split(content, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, ErrInvalidTag
		}
		tags = append(tags, models.Tag{Key: key, Value: unquote(value)})
	}

	return tags, nil
}

// unquote strips surrounding double quotes only when both are present.
func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}
	return value
}

// parseValue parses either a bare integer or a single influx field `key=N`.
// One influx integer suffix (i or u) is accepted in the field form.
func parseValue(token string) (string, uint64, error) {
	field, raw, isField := strings.Cut(token, "=")
	if !isField {
		field, raw = "", token
	} else {
		if field == "" {
			return "", 0, ErrInvalidValue
		}
		if trimmed := strings.TrimSuffix(raw, "i"); trimmed != raw {
			raw = trimmed
		} else {
			raw = strings.TrimSuffix(raw, "u")
		}
	}

	value, err := strconv.ParseUint(raw, 10, valueBits)
	if err != nil {
		return "", 0, ErrInvalidValue
	}

	return field, value, nil
}

// Format renders the metric back into a single line without a trailing newline.
// Metrics carrying a field key are written in the influx style.
func Format(metric *models.Metric) string {
	var b strings.Builder

	b.WriteString(metric.Name)
	if metric.Field != "" {
		for _, tag := range metric.Tags {
			b.WriteByte(',')
			b.WriteString(tag.Key)
			b.WriteByte('=')
			b.WriteString(tag.Value)
		}
		b.WriteByte(' ')
		b.WriteString(metric.Field)
		b.WriteByte('=')
	} else {
		if len(metric.Tags) > 0 {
			b.WriteByte('{')
			for i, tag := range metric.Tags {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(tag.Key)
				b.WriteString(`="`)
				b.WriteString(tag.Value)
				b.WriteByte('"')
			}
			b.WriteByte('}')
		}
		b.WriteByte(' ')
	}
	b.WriteString(strconv.FormatUint(metric.Value, 10))

	if metric.Timestamp != nil {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatUint(*metric.Timestamp, 10))
	}

	return b.String()
}
