package sanitize

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsOperatorKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"name", false},
		{"price[gte]", false},
		{"$gt", true},
		{"price[$gt]", true},
		{"startLocation.coordinates", true},
		{"a[b.c]", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOperatorKey(tt.key))
		})
	}
}

func TestNoSQL(t *testing.T) {
	in := map[string]any{
		"email":    map[string]any{"$gt": ""},
		"password": "pass1234",
		"$where":   "sleep(1000)",
		"a.b":      1,
		"nested":   []any{map[string]any{"$ne": 1, "ok": true}},
	}

	got := NoSQL(in)

	assert.Equal(t, map[string]any{
		"email":    map[string]any{},
		"password": "pass1234",
		"nested":   []any{map[string]any{"ok": true}},
	}, got)
	assert.Contains(t, in, "$where", "input must not be mutated")
}

func TestNoSQL_Scalars(t *testing.T) {
	assert.Equal(t, "x", NoSQL("x"))
	assert.Equal(t, 1.5, NoSQL(1.5))
	assert.Nil(t, NoSQL(nil))
}

func TestNoSQLValues(t *testing.T) {
	in := url.Values{
		"price[$gt]": {"1"},
		"price[gte]": {"500"},
		"sort":       {"price"},
	}

	got := NoSQLValues(in)

	assert.Equal(t, url.Values{"price[gte]": {"500"}, "sort": {"price"}}, got)
	assert.Len(t, in, 3)
}

func TestXSS(t *testing.T) {
	x := NewXSS()

	got := x.Value(map[string]any{
		"name":  `<script>alert("x")</script>Forest Hiker`,
		"tags":  []any{"<b>bold</b>", 3.0},
		"price": 497.0,
	})

	assert.Equal(t, map[string]any{
		"name":  "Forest Hiker",
		"tags":  []any{"bold", 3.0},
		"price": 497.0,
	}, got)
}

func TestXSS_PlainTextUnchanged(t *testing.T) {
	x := NewXSS()

	for _, s := range []string{
		"The Sea Explorer's Trek",
		"Tom & Jerry",
		"o'brien@example.com",
		`The "Snow Adventurer"`,
		"price < 500 > 300",
		"",
	} {
		t.Run(s, func(t *testing.T) {
			assert.Equal(t, s, x.String(s))
		})
	}
}

func TestXSS_EncodedMarkupStaysInert(t *testing.T) {
	x := NewXSS()

	tests := []struct {
		in   string
		want string
	}{
		{"&lt;script&gt;alert(1)&lt;/script&gt;Hi", "Hi"},
		{"&amp;lt;b&amp;gt;bold&amp;lt;/b&amp;gt;", "bold"},
		{"<a href=\"javascript:alert(1)\">Park Camper</a>", "Park Camper"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := x.String(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "<")
		})
	}
}

func TestXSSValues(t *testing.T) {
	got := NewXSS().Values(url.Values{"name": {"<img src=x onerror=alert(1)>Hi"}})

	assert.Equal(t, url.Values{"name": {"Hi"}}, got)
}

func TestPollution(t *testing.T) {
	p := NewPollution(DefaultWhitelist)

	got := p.Values(url.Values{
		"sort":       {"duration", "price"},
		"difficulty": {"easy", "medium"},
		"duration":   {"5"},
		"empty":      {},
	})

	assert.Equal(t, url.Values{
		"sort":       {"price"},
		"difficulty": {"easy", "medium"},
		"duration":   {"5"},
	}, got)
}

func TestPollution_EmptyWhitelist(t *testing.T) {
	got := NewPollution(nil).Values(url.Values{"difficulty": {"easy", "medium"}})

	assert.Equal(t, url.Values{"difficulty": {"medium"}}, got)
}
