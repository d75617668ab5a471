package render

import (
	"fmt"
	"strings"

	"github.com/akl7777777/ippure-panel/internal/model"
)

// Colors shared by the compact single-value tiles.
const (
	tileGood = "#88A788"
	tileWarn = "#D4A017"
	tileBad  = "#CC4444"
)

// Titles of the single-value tiles.
const (
	TitleFraudScore = "Fraud Score"
	TitleIPType     = "IP Type"
	TitleIPInfo     = "IP Info"
	TitleInfo       = "IPPure IP 信息"
	titleInfoError  = "IPPure 信息"
)

// FraudScore renders the bare score with 40/70 thresholds.
func FraudScore(info *model.APIInfo) model.Tile {
	if info.FraudScore == nil {
		return SimpleError(TitleFraudScore, "No Score")
	}
	score := *info.FraudScore
	color := tileGood
	switch {
	case score >= 70:
		color = tileBad
	case score >= 40:
		color = tileWarn
	}
	return model.Tile{
		Title:           TitleFraudScore,
		Content:         "Score: " + number(score),
		BackgroundColor: color,
	}
}

// IPType renders residential/datacenter and native/broadcast. Residential
// native is best, datacenter broadcast is worst.
func IPType(info *model.APIInfo) model.Tile {
	res, brd := isTrue(info.IsResidential), isTrue(info.IsBroadcast)

	resText, brdText := "DC", "Native"
	if res {
		resText = "Residential"
	}
	if brd {
		brdText = "Broadcast"
	}

	color := tileGood
	switch {
	case !res && brd:
		color = tileBad
	case res == brd:
		color = tileWarn
	}
	return model.Tile{
		Title:           TitleIPType,
		Content:         resText + " • " + brdText,
		BackgroundColor: color,
	}
}

// IPInfo renders the most specific known location and the AS organization.
func IPInfo(info *model.APIInfo) model.Tile {
	loc := firstNonEmpty("Unknown", info.City, info.Region, info.Country)
	org := firstNonEmpty("Unknown", info.ASOrganization)
	return model.Tile{
		Title:           TitleIPInfo,
		Content:         loc + " - " + org,
		BackgroundColor: tileGood,
	}
}

// Palette of the info tile.
const (
	infoSuccess = "#2ECC71"
	infoWarning = "#F39C12"
	infoDanger  = "#E74C3C"
	infoBlue    = "#3498DB"
)

// Info renders location, address, organization, IP type and risk in one tile
// tinted through the icon color only.
func Info(info *model.APIInfo) model.Tile {
	res, brd := isTrue(info.IsResidential), isTrue(info.IsBroadcast)

	typ := "🖥️ 数据中心"
	if res {
		typ = "🏠 住宅"
	}
	cast := "🎯 原生"
	if brd {
		cast = "📡 广播"
	}

	level, scoreText := "未知", "N/A"
	// Clean scores keep the type color: green residential, blue otherwise.
	color := infoBlue
	if res {
		color = infoSuccess
	}
	if s := info.FraudScore; s != nil {
		scoreText = number(*s) + "/100"
		switch {
		case *s <= 30:
			level = "低风险"
		case *s <= 60:
			level, color = "中风险", infoWarning
		default:
			level, color = "高风险", infoDanger
		}
	}

	content := strings.Join([]string{
		"📍 " + firstNonEmpty("未知位置", info.City, info.Region, info.Country),
		"🌐 " + orNA(info.IP),
		"🏢 " + firstNonEmpty("未知运营商", info.ASOrganization),
		typ + " · " + cast,
		fmt.Sprintf("⚠️ 风险: %s (%s)", scoreText, level),
	}, "\n")

	return model.Tile{
		Title:     TitleInfo,
		Content:   content,
		Icon:      "network.badge.shield.half.filled",
		IconColor: color,
	}
}

func isTrue(b *bool) bool { return b != nil && *b }

func firstNonEmpty(fallback string, values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return fallback
}
