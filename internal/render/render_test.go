package render

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akl7777777/ippure-panel/internal/model"
)

func f(v float64) *float64 { return &v }
func b(v bool) *bool        { return &v }

func TestBands(t *testing.T) {
	tests := []struct {
		v     *float64
		emoji string
		label string
		color string
	}{
		{f(0), "⚪", "极佳", "#4A90D9"},
		{f(10), "⚪", "极佳", "#4A90D9"},
		{f(10.5), "🟢", "良好", "#67C23A"},
		{f(30), "🟢", "良好", "#67C23A"},
		{f(50), "🟡", "一般", "#E6A23C"},
		{f(70), "🟠", "较差", "#F56C6C"},
		{f(90), "🔴", "很差", "#909399"},
		{f(90.1), "⚫", "极差", "#909399"},
		{f(100), "⚫", "极差", "#909399"},
		{nil, "❓", "未知", "#909399"},
		{f(math.NaN()), "❓", "未知", "#909399"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.emoji, Emoji(tt.v))
		assert.Equal(t, tt.label, Label(tt.v))
		assert.Equal(t, tt.color, Color(tt.v))
	}
}

func TestFlag(t *testing.T) {
	assert.Equal(t, "🇯🇵", Flag("jp"))
	assert.Equal(t, "🏳️", Flag("ZZ"))
	assert.Equal(t, "🌍", Flag(""))
}

func fullReport() *model.Report {
	return &model.Report{
		IP:             "203.0.113.9",
		Score:          f(25),
		ScoreField:     model.ScoreFieldFraud,
		BotRatio:       f(12.5),
		HumanRatio:     f(87.5),
		IPAttr:         model.AttrResidential,
		IPSource:       model.SourceNative,
		Country:        "Japan",
		CountryCode:    "JP",
		Region:         "Tokyo",
		City:           "Tokyo",
		Timezone:       "Asia/Tokyo",
		ASN:            2516,
		ASOrganization: "KDDI",
		Sources:        model.SourceFlags{API: true, Web: true},
	}
}

func TestClassic(t *testing.T) {
	tile := Classic(fullReport(), "")

	want := strings.Join([]string{
		"📍 203.0.113.9",
		"🇯🇵 Tokyo • Tokyo • Japan",
		"",
		"【🟢🟢 住宅 原生】",
		"━━━━━━━━━━━━━━━",
		"🎯 纯净度: 25% (良好)",
		"👤 人类: 87.5% | 🤖 Bot: 12.5%",
		"🏠 IP属性: 住宅",
		"🎯 IP来源: 原生",
		"━━━━━━━━━━━━━━━",
		"🌐 ISP: AS2516 KDDI",
		"⏱️ 时区: Asia/Tokyo",
	}, "\n")
	assert.Equal(t, want, tile.Content)
	assert.Equal(t, "IPPure | 🟢🟢 25% 203.0.113.9", tile.Title)
	assert.Equal(t, "#67C23A", tile.BackgroundColor)
	assert.Equal(t, "#67C23A", tile.IconColor)
	assert.Equal(t, "network", tile.Icon)
}

func TestClassicDegraded(t *testing.T) {
	r := &model.Report{
		Score:     f(42),
		BotRatio:  f(8),
		RiskLevel: "中度风险",
		IPAttr:    model.AttrDatacenter,
		IPSource:  model.SourceBroadcast,
		Sources:   model.SourceFlags{Web: true},
		Degraded:  true,
	}
	tile := Classic(r, "HK-01")

	want := strings.Join([]string{
		"🔗 节点: HK-01",
		"",
		"📍 N/A",
		"🌍 未知位置",
		"",
		"【🟡⚪ 机房 广播】",
		"━━━━━━━━━━━━━━━",
		"⚠️ 风险: 42% 中度风险",
		"🤖 Bot流量: 8%",
		"🏢 IP属性: 机房",
		"📡 IP来源: 广播",
		"━━━━━━━━━━━━━━━",
		"🌐 ISP: 未知",
		"",
		"⚠️ 部分数据源异常",
	}, "\n")
	assert.Equal(t, want, tile.Content)
	assert.Equal(t, "IPPure | 🟡⚪ 42% HK-01", tile.Title)
	assert.Equal(t, "#E6A23C", tile.BackgroundColor)
}

func TestClassicWithoutBotOmitsBotEmojiFromTitle(t *testing.T) {
	r := fullReport()
	r.BotRatio = nil
	r.HumanRatio = nil
	tile := Classic(r, "")
	assert.Equal(t, "IPPure | 🟢 25% 203.0.113.9", tile.Title)
	assert.NotContains(t, tile.Content, "Bot")
	assert.Contains(t, tile.Content, "【🟢❓ 住宅 原生】")
}

func TestPanel(t *testing.T) {
	r := fullReport()
	r.Score = nil
	r.BotRatio = f(60)
	r.Timezone = ""
	tile := Panel(r)

	assert.Equal(t, "IPPure | ❓🟠 N/A", tile.Title)
	assert.Equal(t, "#F56C6C", tile.BackgroundColor)
	lines := strings.Split(tile.Content, "\n")
	assert.Equal(t, "🎯 纯净度: N/A (未知)", lines[5])
	assert.Equal(t, "🤖 Bot流量: 60%", lines[6])
	assert.Equal(t, "⏱️ 时区: N/A", lines[len(lines)-1])
}

func TestPanelColorUsesWorseValue(t *testing.T) {
	r := fullReport()
	r.Score = f(5)
	r.BotRatio = f(45)
	assert.Equal(t, "#E6A23C", Panel(r).BackgroundColor)

	r.BotRatio = nil
	assert.Equal(t, "#4A90D9", Panel(r).BackgroundColor)

	r.Score = nil
	assert.Equal(t, "#4A90D9", Panel(r).BackgroundColor)
}

func TestPanelDegraded(t *testing.T) {
	r := fullReport()
	r.Degraded = true
	assert.True(t, strings.HasSuffix(Panel(r).Content, "\n\n⚠️ 部分数据源异常"))
}

func TestNode(t *testing.T) {
	r := fullReport()
	tile := Node(r, "JP-02", NodeOptions{ShowTimezone: true, ShowISP: true})

	want := strings.Join([]string{
		"🔗 节点: JP-02",
		"",
		"📍 203.0.113.9",
		"🇯🇵 Tokyo • Tokyo • Japan",
		"",
		"━━━━━━━━━━━━━━━",
		"🟢 纯净度: 25% (良好)",
		"🏠 IP属性: 住宅",
		"🎯 IP来源: 原生",
		"━━━━━━━━━━━━━━━",
		"🌐 ISP: AS2516 KDDI",
		"⏱️ 时区: Asia/Tokyo",
	}, "\n")
	assert.Equal(t, want, tile.Content)
	assert.Equal(t, "IPPure | 🟢 25% JP-02", tile.Title)

	bare := Node(r, "", NodeOptions{})
	assert.True(t, strings.HasSuffix(bare.Content, "🎯 IP来源: 原生"))
	assert.Equal(t, "IPPure | 🟢 25% 203.0.113.9", bare.Title)
}

func TestWorker(t *testing.T) {
	r := fullReport()
	r.IP = ""
	resp := &model.AggregateResponse{
		Success: true,
		IP:      "198.51.100.4",
		Data:    r,
		Source:  &model.SourceFlags{API: true, Web: false},
	}
	tile := Worker(resp, "")

	assert.Equal(t, "IPPure | 🟢🟢 25% 198.51.100.4", tile.Title)
	assert.True(t, strings.HasPrefix(tile.Content, "📍 198.51.100.4\n"))
	assert.True(t, strings.HasSuffix(tile.Content, "⏱️ 时区: Asia/Tokyo\n\n📡 数据源: API"))
}

func TestErrorPanels(t *testing.T) {
	tile := ClassicError("API 和网页都请求失败")
	assert.Equal(t, "IPPure | ❌ 检测失败", tile.Title)
	assert.Equal(t, "错误: API 和网页都请求失败\n\n请检查:\n1. 网络连接是否正常\n2. 节点是否可用\n3. IPPure 服务是否可访问", tile.Content)
	assert.Equal(t, "#909399", tile.BackgroundColor)
	assert.Equal(t, "xmark.circle", tile.Icon)
	assert.Equal(t, "#F56C6C", tile.IconColor)

	assert.True(t, strings.HasSuffix(WorkerError("x").Content, "3. Worker 是否正常"))

	p := PanelError("所有数据源均失败")
	assert.Equal(t, "IPPure Panel", p.Title)
	assert.Equal(t, "❌ 检测失败\n所有数据源均失败", p.Content)
	assert.Equal(t, "#909399", p.BackgroundColor)
}

func TestFraudScore(t *testing.T) {
	tests := []struct {
		score *float64
		want  model.Tile
	}{
		{f(12), model.Tile{Title: "Fraud Score", Content: "Score: 12", BackgroundColor: "#88A788"}},
		{f(40), model.Tile{Title: "Fraud Score", Content: "Score: 40", BackgroundColor: "#D4A017"}},
		{f(69.9), model.Tile{Title: "Fraud Score", Content: "Score: 69.9", BackgroundColor: "#D4A017"}},
		{f(70), model.Tile{Title: "Fraud Score", Content: "Score: 70", BackgroundColor: "#CC4444"}},
		{nil, model.Tile{Title: "Fraud Score", Content: "No Score", BackgroundColor: "#CC4444"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FraudScore(&model.APIInfo{FraudScore: tt.score}))
	}
}

func TestIPType(t *testing.T) {
	tests := []struct {
		res, brd *bool
		content  string
		color    string
	}{
		{b(true), b(false), "Residential • Native", "#88A788"},
		{b(true), b(true), "Residential • Broadcast", "#D4A017"},
		{b(false), b(false), "DC • Native", "#D4A017"},
		{b(false), b(true), "DC • Broadcast", "#CC4444"},
		{nil, nil, "DC • Native", "#D4A017"},
	}
	for _, tt := range tests {
		tile := IPType(&model.APIInfo{IsResidential: tt.res, IsBroadcast: tt.brd})
		assert.Equal(t, tt.content, tile.Content)
		assert.Equal(t, tt.color, tile.BackgroundColor)
	}
}

func TestIPInfo(t *testing.T) {
	tile := IPInfo(&model.APIInfo{Region: "Bavaria", Country: "Germany", ASOrganization: "Hetzner"})
	assert.Equal(t, "Bavaria - Hetzner", tile.Content)

	tile = IPInfo(&model.APIInfo{})
	assert.Equal(t, "Unknown - Unknown", tile.Content)
	assert.Equal(t, "#88A788", tile.BackgroundColor)
}

func TestInfo(t *testing.T) {
	tile := Info(&model.APIInfo{
		IP:             "192.0.2.1",
		City:           "Frankfurt",
		ASOrganization: "Hetzner",
		FraudScore:     f(20),
		IsResidential:  b(false),
	})
	assert.Equal(t, "📍 Frankfurt\n🌐 192.0.2.1\n🏢 Hetzner\n🖥️ 数据中心 · 🎯 原生\n⚠️ 风险: 20/100 (低风险)", tile.Content)
	assert.Equal(t, "#3498DB", tile.IconColor)
	assert.Empty(t, tile.BackgroundColor)

	tests := []struct {
		info  model.APIInfo
		color string
	}{
		{model.APIInfo{FraudScore: f(30), IsResidential: b(true)}, "#2ECC71"},
		{model.APIInfo{FraudScore: f(60)}, "#F39C12"},
		{model.APIInfo{FraudScore: f(61), IsResidential: b(true)}, "#E74C3C"},
		{model.APIInfo{IsResidential: b(true)}, "#2ECC71"},
		{model.APIInfo{}, "#3498DB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.color, Info(&tt.info).IconColor)
	}
	assert.Contains(t, Info(&model.APIInfo{}).Content, "⚠️ 风险: N/A (未知)")
}
