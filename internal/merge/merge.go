package merge

import "github.com/akl7777777/ippure-panel/internal/model"

// Precedence decides which source wins for the IP attribute and IP source
// fields when both have a value. The score always prefers the API.
type Precedence int

const (
	PreferWeb Precedence = iota
	PreferAPI
)

func (p Precedence) String() string {
	if p == PreferAPI {
		return "api"
	}
	return "web"
}

// Unavailable reports a merged report with nothing to show: the API failed
// and the page gave neither a score nor a bot ratio.
func Unavailable(r *model.Report) bool {
	return !r.Sources.API && r.Score == nil && r.BotRatio == nil
}

// Merge combines the API payload and the scraped page. Either side may be nil
// when its request failed.
func Merge(api *model.APIInfo, web *model.WebData, prec Precedence) *model.Report {
	r := &model.Report{
		Sources: model.SourceFlags{API: api != nil, Web: web != nil},
	}
	r.Degraded = r.Sources.API != r.Sources.Web

	if web == nil {
		web = &model.WebData{}
	}

	var apiAttr, apiSource string
	if api != nil {
		r.IP = api.IP
		r.IsResidential = api.IsResidential
		r.IsBroadcast = api.IsBroadcast
		r.Country = api.Country
		r.CountryCode = api.CountryCode
		r.Region = api.Region
		r.City = api.City
		r.Timezone = api.Timezone
		r.ASN = int(api.ASN)
		r.ASOrganization = api.ASOrganization

		if api.IsResidential != nil {
			apiAttr = model.AttrDatacenter
			if *api.IsResidential {
				apiAttr = model.AttrResidential
			}
		}
		if api.IsBroadcast != nil {
			apiSource = model.SourceNative
			if *api.IsBroadcast {
				apiSource = model.SourceBroadcast
			}
		}

		if api.FraudScore != nil {
			r.Score = api.FraudScore
			r.ScoreField = model.ScoreFieldFraud
		}
	}

	if r.Score == nil && web.PureScore != nil {
		r.Score = web.PureScore
		r.ScoreField = model.ScoreFieldPure
	}

	r.BotRatio = web.BotRatio
	r.HumanRatio = web.HumanRatio
	r.RiskLevel = web.RiskLevel

	if prec == PreferAPI {
		r.IPAttr = coalesce(apiAttr, web.IPAttr)
		r.IPSource = coalesce(apiSource, web.IPSource)
	} else {
		r.IPAttr = coalesce(web.IPAttr, apiAttr)
		r.IPSource = coalesce(web.IPSource, apiSource)
	}

	return r
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
