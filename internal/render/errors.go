package render

import (
	"github.com/akl7777777/ippure-panel/internal/model"
)

const (
	failedTitle = "IPPure | ❌ 检测失败"
	panelTitle  = "IPPure Panel"
	iconFailed  = "xmark.circle"
	iconRed     = "#F56C6C"
)

// ClassicError is the canonical failure panel of the direct dual-source tile.
func ClassicError(msg string) model.Tile {
	return failure(msg, "IPPure 服务是否可访问")
}

// WorkerError is the failure panel of the aggregator-backed tile.
func WorkerError(msg string) model.Tile {
	return failure(msg, "Worker 是否正常")
}

func failure(msg, lastCheck string) model.Tile {
	return model.Tile{
		Title: failedTitle,
		Content: "错误: " + msg + "\n\n请检查:\n1. 网络连接是否正常\n2. 节点是否可用\n3. " +
			lastCheck,
		BackgroundColor: Neutral,
		Icon:            iconFailed,
		IconColor:       iconRed,
	}
}

// PanelError is the failure panel of the panel and node tiles.
func PanelError(msg string) model.Tile {
	return model.Tile{
		Title:           panelTitle,
		Content:         "❌ 检测失败\n" + msg,
		BackgroundColor: Neutral,
		Icon:            iconFailed,
		IconColor:       iconRed,
	}
}

// SimpleError is the red one-line tile of the single-value variants.
func SimpleError(title, content string) model.Tile {
	return model.Tile{Title: title, Content: content, BackgroundColor: tileBad}
}

// InfoError is the failure form of the info tile.
func InfoError(content, icon string) model.Tile {
	return model.Tile{
		Title:     titleInfoError,
		Content:   content,
		Icon:      icon,
		IconColor: infoDanger,
	}
}
