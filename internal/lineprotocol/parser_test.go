package lineprotocol

import (
	"errors"
	"testing"

	"github.com/sbilibin2017/telemetry-sidecar/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrUint64(v uint64) *uint64 {
	return &v
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    *models.Metric
		wantErr error
	}{
		{
			name: "tags value and timestamp",
			line: `http_requests_total{method="post",code="200",region="us-ashburn-1"} 123 1745825678238`,
			want: &models.Metric{
				Name: "http_requests_total",
				Tags: models.Tags{
					{Key: "method", Value: "post"},
					{Key: "code", Value: "200"},
					{Key: "region", Value: "us-ashburn-1"},
				},
				Value:     123,
				Timestamp: ptrUint64(1745825678238),
			},
		},
		{
			name: "without timestamp",
			line: `http_requests_total{method="post",code="200"} 789`,
			want: &models.Metric{
				Name: "http_requests_total",
				Tags: models.Tags{
					{Key: "method", Value: "post"},
					{Key: "code", Value: "200"},
				},
				Value: 789,
			},
		},
		{
			name: "without tags",
			line: "http_requests_total 123 1745825678238",
			want: &models.Metric{
				Name:      "http_requests_total",
				Tags:      models.Tags{},
				Value:     123,
				Timestamp: ptrUint64(1745825678238),
			},
		},
		{
			name: "empty tag set",
			line: "up{} 1",
			want: &models.Metric{Name: "up", Tags: models.Tags{}, Value: 1},
		},
		{
			name: "unquoted and single quote values are kept verbatim",
			line: `jobs{queue=default,owner="} 4`,
			want: &models.Metric{
				Name: "jobs",
				Tags: models.Tags{
					{Key: "queue", Value: "default"},
					{Key: "owner", Value: `"`},
				},
				Value: 4,
			},
		},
		{
			name: "tag value split on first equals sign",
			line: `q{expr="a=b"} 2`,
			want: &models.Metric{
				Name:  "q",
				Tags:  models.Tags{{Key: "expr", Value: "a=b"}},
				Value: 2,
			},
		},
		{
			name: "whitespace runs between tokens",
			line: "  disk_writes \t 15   99 ",
			want: &models.Metric{
				Name:      "disk_writes",
				Tags:      models.Tags{},
				Value:     15,
				Timestamp: ptrUint64(99),
			},
		},
		{
			name: "influx style line",
			line: "cpu,region=us-ashburn-1 usage=5 1556813561098",
			want: &models.Metric{
				Name:      "cpu",
				Field:     "usage",
				Tags:      models.Tags{{Key: "region", Value: "us-ashburn-1"}},
				Value:     5,
				Timestamp: ptrUint64(1556813561098),
			},
		},
		{
			name: "influx integer suffix",
			line: "http_requests_total,region=us-ashburn-1,status=ok count=82i",
			want: &models.Metric{
				Name:  "http_requests_total",
				Field: "count",
				Tags: models.Tags{
					{Key: "region", Value: "us-ashburn-1"},
					{Key: "status", Value: "ok"},
				},
				Value: 82,
			},
		},
		{
			name: "comma name without tag set",
			line: "a,b 5",
			want: &models.Metric{Name: "a,b", Tags: models.Tags{}, Value: 5},
		},
		{
			name: "largest storable value and timestamp",
			line: "requests_total 9223372036854775807 9223372036854775807",
			want: &models.Metric{
				Name:      "requests_total",
				Tags:      models.Tags{},
				Value:     9223372036854775807,
				Timestamp: ptrUint64(9223372036854775807),
			},
		},
		{
			name: "influx unsigned suffix",
			line: "cpu usage=7u",
			want: &models.Metric{Name: "cpu", Field: "usage", Tags: models.Tags{}, Value: 7},
		},
		{
			name:    "missing name",
			line:    `{method="post",code="200"} 123 1745825678238`,
			wantErr: ErrMissingName,
		},
		{
			name:    "missing name in influx style",
			line:    ",region=eu usage=1",
			wantErr: ErrMissingName,
		},
		{
			name:    "missing value",
			line:    `http_requests_total{method="post",code="200"}`,
			wantErr: ErrMalformedLine,
		},
		{
			name:    "single garbage token",
			line:    "garbage",
			wantErr: ErrMalformedLine,
		},
		{
			name:    "empty line",
			line:    "",
			wantErr: ErrMalformedLine,
		},
		{
			name:    "four tokens",
			line:    `{method="post"} 1 2 3`,
			wantErr: ErrMalformedLine,
		},
		{
			name:    "unterminated tags",
			line:    `http_requests_total{method="post" 1`,
			wantErr: ErrUnterminatedTags,
		},
		{
			name:    "closing brace before opening brace",
			line:    "name}{ 1",
			wantErr: ErrUnterminatedTags,
		},
		{
			name:    "tag without equals sign",
			line:    `http_requests_total{method} 1`,
			wantErr: ErrInvalidTag,
		},
		{
			name:    "tag with empty key",
			line:    `http_requests_total{="x"} 1`,
			wantErr: ErrInvalidTag,
		},
		{
			name:    "real number value",
			line:    "temperature 21.5",
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative value",
			line:    "balance -3",
			wantErr: ErrInvalidValue,
		},
		{
			name:    "field without key",
			line:    "cpu,host=a =5",
			wantErr: ErrInvalidValue,
		},
		{
			name:    "invalid timestamp",
			line:    "http_requests_total 1 yesterday",
			wantErr: ErrInvalidTimestamp,
		},
		{
			name:    "value above signed 64-bit range",
			line:    "requests_total 9223372036854775808",
			wantErr: ErrInvalidValue,
		},
		{
			name:    "field value above signed 64-bit range",
			line:    "cpu usage=9223372036854775808i",
			wantErr: ErrInvalidValue,
		},
		{
			name:    "timestamp above signed 64-bit range",
			line:    "requests_total 1 9223372036854775808",
			wantErr: ErrInvalidTimestamp,
		},
		{
			name:    "repeated integer suffixes",
			line:    "cpu usage=5iuiu",
			wantErr: ErrInvalidValue,
		},
		{
			name:    "both integer suffixes",
			line:    "cpu usage=5ui",
			wantErr: ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				var parseErr *ParseError
				require.True(t, errors.As(err, &parseErr))
				assert.Equal(t, tt.line, parseErr.Line)
				return
			}
			require.NoError(t, err)
			assert.Nil(t, got.ID)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_TimestampAbsent(t *testing.T) {
	got, err := Parse(`http_requests_total{method="post",code="200"} 789`)
	require.NoError(t, err)
	assert.Nil(t, got.Timestamp)
}

func TestFormat_RoundTrip(t *testing.T) {
	metrics := []*models.Metric{
		{
			Name: "http_requests_total",
			Tags: models.Tags{
				{Key: "method", Value: "post"},
				{Key: "code", Value: "200"},
			},
			Value:     789,
			Timestamp: ptrUint64(1745825678238),
		},
		{Name: "uptime_seconds", Tags: models.Tags{}, Value: 42},
		{
			Name:      "cpu",
			Field:     "usage",
			Tags:      models.Tags{{Key: "region", Value: "us-ashburn-1"}},
			Value:     5,
			Timestamp: ptrUint64(1556813561098),
		},
	}

	for _, m := range metrics {
		t.Run(m.Name, func(t *testing.T) {
			line := Format(m)
			got, err := Parse(line)
			require.NoError(t, err, line)
			assert.Equal(t, m, got)
		})
	}
}

func TestFormat(t *testing.T) {
	m := &models.Metric{
		Name:  "http_requests_total",
		Tags:  models.Tags{{Key: "method", Value: "post"}},
		Value: 1,
	}
	assert.Equal(t, `http_requests_total{method="post"} 1`, Format(m))

	m = &models.Metric{Name: "cpu", Field: "usage", Value: 5}
	assert.Equal(t, "cpu usage=5", Format(m))
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{newParseError("x", ErrMalformedLine), "malformed_line"},
		{newParseError("x", ErrUnterminatedTags), "unterminated_tags"},
		{newParseError("x", ErrInvalidTag), "invalid_tag"},
		{newParseError("x", ErrMissingName), "missing_name"},
		{newParseError("x", ErrInvalidValue), "invalid_value"},
		{newParseError("x", ErrInvalidTimestamp), "invalid_timestamp"},
		{errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err))
	}
}

func TestParseError_Error(t *testing.T) {
	err := newParseError("garbage", ErrMalformedLine)
	assert.Equal(t, `malformed line: "garbage"`, err.Error())
}
