package model

import (
	"strconv"
	"strings"
)

// Attribute and source labels shared by the scraper, merger and renderer.
const (
	AttrResidential = "住宅"
	AttrDatacenter  = "机房"

	SourceNative    = "原生"
	SourceBroadcast = "广播"
)

// Score field names. The two fields are not normalized against each other:
// fraudScore comes from the JSON API, pureScore from the scraped page.
const (
	ScoreFieldFraud = "fraudScore"
	ScoreFieldPure  = "pureScore"
)

// APIInfo is the payload of GET /v1/info.
type APIInfo struct {
	IP             string   `json:"ip"`
	FraudScore     *float64 `json:"fraudScore"`
	IsResidential  *bool    `json:"isResidential"`
	IsBroadcast    *bool    `json:"isBroadcast"`
	Country        string   `json:"country"`
	CountryCode    string   `json:"countryCode"`
	Region         string   `json:"region"`
	City           string   `json:"city"`
	Timezone       string   `json:"timezone"`
	ASN            ASN      `json:"asn"`
	ASOrganization string   `json:"asOrganization"`
}

// WebData holds the fields scraped from the IPPure web page.
// A nil field means no pattern matched.
type WebData struct {
	PureScore  *float64 `json:"pureScore"`
	BotRatio   *float64 `json:"botRatio"`
	HumanRatio *float64 `json:"humanRatio"`
	IPAttr     string   `json:"ipAttr,omitempty"`
	IPSource   string   `json:"ipSource,omitempty"`
	RiskLevel  string   `json:"riskLevel,omitempty"`
}

// Empty reports whether nothing was extracted.
func (w *WebData) Empty() bool {
	return w == nil || (w.PureScore == nil && w.BotRatio == nil && w.HumanRatio == nil &&
		w.IPAttr == "" && w.IPSource == "" && w.RiskLevel == "")
}

// SourceFlags records which upstream sources answered.
type SourceFlags struct {
	API bool `json:"api"`
	Web bool `json:"web"`
}

// Report is the merged result of one IP reputation lookup.
type Report struct {
	IP             string      `json:"ip"`
	Score          *float64    `json:"fraudScore"`
	ScoreField     string      `json:"scoreField,omitempty"`
	BotRatio       *float64    `json:"botRatio"`
	HumanRatio     *float64    `json:"humanRatio"`
	IPAttr         string      `json:"ipAttr,omitempty"`
	IPSource       string      `json:"ipSource,omitempty"`
	IsResidential  *bool       `json:"isResidential"`
	IsBroadcast    *bool       `json:"isBroadcast"`
	RiskLevel      string      `json:"riskLevel,omitempty"`
	Country        string      `json:"country,omitempty"`
	CountryCode    string      `json:"countryCode,omitempty"`
	Region         string      `json:"region,omitempty"`
	City           string      `json:"city,omitempty"`
	Timezone       string      `json:"timezone,omitempty"`
	ASN            int         `json:"asn,omitempty"`
	ASOrganization string      `json:"asOrganization,omitempty"`
	Sources        SourceFlags `json:"sources"`
	Degraded       bool        `json:"degraded"`
	Warnings       []string    `json:"warnings,omitempty"`
	Cached         bool        `json:"cached,omitempty"`
}

// Tile is the structured object handed to the host app's completion callback.
type Tile struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	Icon            string `json:"icon,omitempty"`
	IconColor       string `json:"icon-color,omitempty"`
}

// FailureDetails carries the per-source error text when every source failed.
type FailureDetails struct {
	API string `json:"api,omitempty"`
	Web string `json:"web,omitempty"`
}

// AggregateResponse is the envelope returned by /api/ippure.
type AggregateResponse struct {
	Success   bool            `json:"success"`
	IP        string          `json:"ip,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Data      *Report         `json:"data,omitempty"`
	Source    *SourceFlags    `json:"source,omitempty"`
	Error     string          `json:"error,omitempty"`
	Details   *FailureDetails `json:"details,omitempty"`
}

// HealthResponse is returned by /api/health.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// SourceStatus represents the status of an upstream IPPure source.
type SourceStatus struct {
	Name        string `json:"name"`
	Available   bool   `json:"available"`
	RateLimit   int    `json:"rate_limit_per_min"`
	UsedLastMin int    `json:"used_last_min"`
}

// StatsResponse is returned by the /api/stats endpoint.
type StatsResponse struct {
	CacheBackend           string         `json:"cache_backend"`
	CacheSize              int            `json:"cache_size"`
	CacheTTL               string         `json:"cache_ttl"`
	PersistentCacheEnabled bool           `json:"persistent_cache_enabled"`
	PersistentCacheSize    int            `json:"persistent_cache_size,omitempty"`
	Sources                []SourceStatus `json:"sources"`
	LocalDB                bool           `json:"local_db_loaded"`
	KnownHostingASNs       int            `json:"known_hosting_asns"`
}

// ErrorResponse is returned on error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// ASN decodes an autonomous system number sent either as a JSON number
// or as a string such as "AS13335 Cloudflare, Inc.".
type ASN int

func (a *ASN) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	*a = ASN(ParseASN(s))
	return nil
}

// ParseASN extracts the number from strings like "AS16509 Amazon.com, Inc.".
func ParseASN(s string) int {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.EqualFold(s[:2], "AS") {
		s = s[2:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
