// Package scrape extracts reputation fields from the IPPure web page.
//
// Every field has an ordered list of patterns and the first one that yields a
// value wins. Fields nothing matches stay nil. The patterns follow the page's
// visible text, so a layout change silently empties fields instead of failing.
package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/akl7777777/ippure-panel/internal/model"
)

const num = `(\d+(?:\.\d+)?)`

var (
	scorePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)IPPure\s*系数[：:\s]*` + num + `\s*%`),
		regexp.MustCompile(`(?i)IPPure\s*Score[：:\s]*` + num + `\s*%`),
		regexp.MustCompile(`纯净度[：:\s]*` + num + `\s*%`),
		regexp.MustCompile(`(?i)fraud\s*score[：:\s]*` + num),
		regexp.MustCompile(`(?i)ippure[^<]*?` + num + `\s*%`),
		regexp.MustCompile(`纯净度[^<]*?` + num + `\s*%`),
		regexp.MustCompile(`(?i)pure[^<]*?` + num + `\s*%`),
		regexp.MustCompile(num + `\s*%\s*[低中高]度?风险`),
	}

	botPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[Bb]ot\s*流量比?[：:\s]*` + num + `\s*%`),
		regexp.MustCompile(`[Bb]ot\s*[Rr]atio[：:\s]*` + num + `\s*%`),
		regexp.MustCompile(`[Bb]ot\s*[Tt]raffic[：:\s]*` + num + `\s*%`),
		regexp.MustCompile(`(?i)bot[:\s]*` + num + `\s*%`),
		regexp.MustCompile(`(?i)` + num + `\s*%\s*bot`),
		regexp.MustCompile(`机器人[:\s]*` + num + `\s*%`),
	}

	humanPatterns = []*regexp.Regexp{
		regexp.MustCompile(`人类\s*流量比?[：:\s]*` + num + `\s*%`),
		regexp.MustCompile(`(?i)human[:\s]*` + num + `\s*%`),
		regexp.MustCompile(`(?i)` + num + `\s*%\s*human`),
		regexp.MustCompile(`人类[:\s]*` + num + `\s*%`),
	}

	attrPatterns = []*regexp.Regexp{
		regexp.MustCompile(`IP\s*属性[：:\s]*([住宅机房数据中心]+)`),
		regexp.MustCompile(`(?i)IP\s*Type[：:\s]*(Residential|Datacenter|Hosting)`),
		regexp.MustCompile(`(住宅|机房|数据中心)\s*IP`),
		regexp.MustCompile(`(?i)(datacenter|data\s*center|\bidc\b)`),
		regexp.MustCompile(`(?i)(residential)`),
	}

	sourcePatterns = []*regexp.Regexp{
		regexp.MustCompile(`IP\s*来源[：:\s]*([原生广播本地]+)`),
		regexp.MustCompile(`(?i)IP\s*Source[：:\s]*(Native|Broadcast|Anycast)`),
		regexp.MustCompile(`(原生|广播|本地)\s*IP`),
		regexp.MustCompile(`(?i)(broadcast)`),
		regexp.MustCompile(`(?i)(native)`),
	}

	riskPatterns = []*regexp.Regexp{
		regexp.MustCompile(`([低中高])度?风险`),
		regexp.MustCompile(`(?i)\b(low|medium|high)\s*risk`),
	}
)

// Extract pulls every tracked field out of the page.
func Extract(html string) *model.WebData {
	out := &model.WebData{}
	if strings.TrimSpace(html) == "" {
		return out
	}

	out.PureScore = firstNumber(html, scorePatterns)
	out.BotRatio = firstNumber(html, botPatterns)
	out.HumanRatio = firstNumber(html, humanPatterns)
	out.IPAttr = firstLabel(html, attrPatterns, classifyAttr)
	out.IPSource = firstLabel(html, sourcePatterns, classifySource)
	out.RiskLevel = firstLabel(html, riskPatterns, classifyRisk)
	return out
}

func firstNumber(html string, patterns []*regexp.Regexp) *float64 {
	for _, re := range patterns {
		m := re.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return &v
	}
	return nil
}

func firstLabel(html string, patterns []*regexp.Regexp, classify func(string) string) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		if label := classify(m[1]); label != "" {
			return label
		}
	}
	return ""
}

func classifyAttr(v string) string {
	v = strings.ToLower(v)
	switch {
	case strings.Contains(v, "住宅"), strings.Contains(v, "residential"):
		return model.AttrResidential
	case strings.Contains(v, "机房"), strings.Contains(v, "数据中心"),
		strings.Contains(v, "datacenter"), strings.Contains(v, "data"),
		strings.Contains(v, "hosting"), v == "idc":
		return model.AttrDatacenter
	}
	return ""
}

func classifySource(v string) string {
	v = strings.ToLower(v)
	switch {
	case strings.Contains(v, "原生"), strings.Contains(v, "本地"), strings.Contains(v, "native"):
		return model.SourceNative
	case strings.Contains(v, "广播"), strings.Contains(v, "broadcast"), strings.Contains(v, "anycast"):
		return model.SourceBroadcast
	}
	return ""
}

func classifyRisk(v string) string {
	switch strings.ToLower(v) {
	case "低", "low":
		return "低度风险"
	case "中", "medium":
		return "中度风险"
	case "高", "high":
		return "高度风险"
	}
	return ""
}
