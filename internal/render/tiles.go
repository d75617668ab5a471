package render

import (
	"fmt"
	"strings"

	"github.com/akl7777777/ippure-panel/internal/model"
)

const (
	rule         = "━━━━━━━━━━━━━━━"
	degradedNote = "⚠️ 部分数据源异常"
	iconNetwork  = "network"
)

// NodeOptions toggles the optional lines of the node layout.
type NodeOptions struct {
	ShowTimezone bool
	ShowISP      bool
}

// Classic renders the dual-source layout with the risk or purity line and the
// human/bot traffic line. node may be empty, the title then ends with the IP.
func Classic(r *model.Report, node string) model.Tile {
	ip := orNA(r.IP)
	lines := detailed(r, ip, node)
	if r.Degraded {
		lines = append(lines, "", degradedNote)
	}
	return classicTile(r, ip, node, lines)
}

// Worker renders an aggregator envelope in the classic layout followed by a
// data-source footer.
func Worker(resp *model.AggregateResponse, node string) model.Tile {
	r := resp.Data
	if r == nil {
		r = &model.Report{}
	}
	ip := orNA(resp.IP)
	lines := detailed(r, ip, node)

	src := r.Sources
	if resp.Source != nil {
		src = *resp.Source
	}
	var names []string
	if src.API {
		names = append(names, "API")
	}
	if src.Web {
		names = append(names, "Web")
	}
	if len(names) > 0 {
		lines = append(lines, "", "📡 数据源: "+strings.Join(names, " + "))
	}
	if r.Degraded {
		lines = append(lines, "", degradedNote)
	}
	return classicTile(r, ip, node, lines)
}

func detailed(r *model.Report, ip, node string) []string {
	var lines []string
	if node != "" {
		lines = append(lines, "🔗 节点: "+node, "")
	}
	lines = append(lines, "📍 "+ip, location(r), "")

	attr, source := orUnknown(r.IPAttr), orUnknown(r.IPSource)
	lines = append(lines,
		fmt.Sprintf("【%s%s %s %s】", Emoji(r.Score), Emoji(r.BotRatio), attr, source),
		rule,
	)

	score := percent(r.Score)
	if r.RiskLevel != "" {
		lines = append(lines, fmt.Sprintf("⚠️ 风险: %s %s", score, r.RiskLevel))
	} else {
		lines = append(lines, fmt.Sprintf("🎯 纯净度: %s (%s)", score, Label(r.Score)))
	}

	switch {
	case r.HumanRatio != nil && r.BotRatio != nil:
		lines = append(lines, fmt.Sprintf("👤 人类: %s | 🤖 Bot: %s", percent(r.HumanRatio), percent(r.BotRatio)))
	case r.BotRatio != nil:
		lines = append(lines, "🤖 Bot流量: "+percent(r.BotRatio))
	}

	lines = append(lines,
		attrEmoji(r.IPAttr)+" IP属性: "+attr,
		sourceEmoji(r.IPSource)+" IP来源: "+source,
		rule,
		"🌐 ISP: "+isp(r),
	)
	if r.Timezone != "" {
		lines = append(lines, "⏱️ 时区: "+r.Timezone)
	}
	return lines
}

func classicTile(r *model.Report, ip, node string, lines []string) model.Tile {
	suffix := node
	if suffix == "" {
		suffix = ip
	}
	bot := ""
	if r.BotRatio != nil {
		bot = Emoji(r.BotRatio)
	}
	color := Color(r.Score)
	return model.Tile{
		Title:           fmt.Sprintf("IPPure | %s%s %s %s", Emoji(r.Score), bot, percent(r.Score), suffix),
		Content:         strings.Join(lines, "\n"),
		BackgroundColor: color,
		Icon:            iconNetwork,
		IconColor:       color,
	}
}

// Panel renders the API-first layout. The Bot line is always present and the
// color follows the worse of score and bot ratio.
func Panel(r *model.Report) model.Tile {
	attr, source := orUnknown(r.IPAttr), orUnknown(r.IPSource)
	lines := []string{
		"📍 " + orNA(r.IP),
		location(r),
		"",
		fmt.Sprintf("【%s%s %s %s】", Emoji(r.Score), Emoji(r.BotRatio), attr, source),
		rule,
		fmt.Sprintf("🎯 纯净度: %s (%s)", percent(r.Score), Label(r.Score)),
		"🤖 Bot流量: " + percent(r.BotRatio),
		attrEmoji(r.IPAttr) + " IP属性: " + attr,
		sourceEmoji(r.IPSource) + " IP来源: " + source,
		rule,
		"🌐 ISP: " + isp(r),
		"⏱️ 时区: " + orNA(r.Timezone),
	}
	if r.Degraded {
		lines = append(lines, "", degradedNote)
	}
	color := maxColor(r.Score, r.BotRatio)
	return model.Tile{
		Title:           fmt.Sprintf("IPPure | %s%s %s", Emoji(r.Score), Emoji(r.BotRatio), percent(r.Score)),
		Content:         strings.Join(lines, "\n"),
		BackgroundColor: color,
		Icon:            iconNetwork,
		IconColor:       color,
	}
}

// Node renders the API-only layout for a pinned egress node.
func Node(r *model.Report, node string, opts NodeOptions) model.Tile {
	ip := orNA(r.IP)
	var lines []string
	if node != "" {
		lines = append(lines, "🔗 节点: "+node, "")
	}
	lines = append(lines,
		"📍 "+ip,
		location(r),
		"",
		rule,
		fmt.Sprintf("%s 纯净度: %s (%s)", Emoji(r.Score), percent(r.Score), Label(r.Score)),
		attrEmoji(r.IPAttr)+" IP属性: "+orUnknown(r.IPAttr),
		sourceEmoji(r.IPSource)+" IP来源: "+orUnknown(r.IPSource),
	)
	if opts.ShowISP || opts.ShowTimezone {
		lines = append(lines, rule)
	}
	if opts.ShowISP {
		lines = append(lines, "🌐 ISP: "+isp(r))
	}
	if opts.ShowTimezone {
		lines = append(lines, "⏱️ 时区: "+orNA(r.Timezone))
	}

	suffix := node
	if suffix == "" {
		suffix = ip
	}
	color := Color(r.Score)
	return model.Tile{
		Title:           fmt.Sprintf("IPPure | %s %s %s", Emoji(r.Score), percent(r.Score), suffix),
		Content:         strings.Join(lines, "\n"),
		BackgroundColor: color,
		Icon:            iconNetwork,
		IconColor:       color,
	}
}

func location(r *model.Report) string {
	var parts []string
	for _, p := range []string{r.City, r.Region, r.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return Flag(r.CountryCode) + " 未知位置"
	}
	return Flag(r.CountryCode) + " " + strings.Join(parts, " • ")
}

func isp(r *model.Report) string {
	if r.ASN != 0 {
		return fmt.Sprintf("AS%d %s", r.ASN, r.ASOrganization)
	}
	if r.ASOrganization != "" {
		return r.ASOrganization
	}
	return "未知"
}

func attrEmoji(attr string) string {
	if attr == model.AttrResidential {
		return "🏠"
	}
	return "🏢"
}

func sourceEmoji(source string) string {
	if source == model.SourceBroadcast {
		return "📡"
	}
	return "🎯"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "未知"
	}
	return s
}
