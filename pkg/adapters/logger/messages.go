package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Dataset messages
		"%d metadata rows loaded":                                "メタデータ %d 行を読み込みました",
		"Load video failed: %s (%v)":                             "動画の読み込みに失敗しました: %s (%v)",
		"Video too short: %s has %d frames, need %d":             "動画が短すぎます: %s は %d フレーム、%d フレーム必要です",
		"Video too short for fixed fps: %s has %d frames, need %d": "固定fpsには動画が短すぎます: %s は %d フレーム、%d フレーム必要です",
		"Get frames failed: %s (max index %d of %d frames): %v":  "フレーム取得に失敗しました: %s (最大インデックス %d / 全 %d フレーム): %v",
		"Convert frames failed: %s (%v)":                         "フレーム変換に失敗しました: %s (%v)",
		"Spatial transform failed: %s (%v)":                      "空間変換に失敗しました: %s (%v)",
		"Save clip frames failed: %v":                            "クリップフレームの保存に失敗しました: %v",
		"Save sample info failed: %v":                            "サンプル情報の保存に失敗しました: %v",

		// Decoder messages
		"Probing %s":                       "%s を解析中",
		"Decoding %d frames from %s":       "%s から %d フレームをデコード中",

		// CLI messages
		"Sampled %d/%d clips":              "%d/%d クリップをサンプリングしました",
		"fps histogram: %v":                "fpsヒストグラム: %v",
		"frame stride histogram: %v":       "フレームストライドのヒストグラム: %v",
		"Exported sample %d to %s":         "サンプル %d を %s に書き出しました",
	})
}
