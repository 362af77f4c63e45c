// Package main provides localization for the clipset CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Sample training clips from a video corpus": "動画コーパスから学習用クリップをサンプリング",

		// Commands
		"Draw samples and report fps/stride statistics":    "サンプルを抽出し、fps/ストライドの統計を表示",
		"Write samples to .npy tensors with caption sidecars": "サンプルを .npy テンソルとキャプションファイルに書き出し",
		"Print frame count and average fps of a video file": "動画ファイルのフレーム数と平均fpsを表示",
		"Show version information":                          "バージョン情報を表示",
		"clipset version %s":                                "clipset バージョン %s",

		// Flags
		"YAML config file":                              "YAML設定ファイル",
		"Metadata CSV path":                             "メタデータCSVのパス",
		"Corpus root directory":                         "コーパスのルートディレクトリ",
		"Use only this many metadata rows (deterministic)": "メタデータを指定行数に限定（決定的）",
		"Frames per clip":                               "クリップあたりのフレーム数",
		"Frame stride":                                  "フレームストライド",
		"Minimum frame stride for randomization":        "ランダム化時の最小フレームストライド",
		"Randomize the stride per sample":               "サンプルごとにストライドをランダム化",
		"Target clip height":                            "クリップの目標高さ",
		"Target clip width":                             "クリップの目標幅",
		"Spatial transform policy (random_crop, center_crop, resize_center_crop, resize)": "空間変換ポリシー (random_crop, center_crop, resize_center_crop, resize)",
		"Normalize playback to this fps":                "再生を指定fpsに正規化",
		"Cap the reported fps":                          "報告fpsの上限",
		"Decode at native resolution":                   "ネイティブ解像度でデコード",
		"Retry budget per Get call":                     "Get呼び出しあたりのリトライ上限",
		"Randomization seed (0 = clock)":                "乱数シード (0 = 時刻)",
		"Save contact sheets of sampled clips":          "サンプリングしたクリップのコンタクトシートを保存",
		"Directory for debug output":                    "デバッグ出力のディレクトリ",
		"Log level (debug, info, warn, error)":          "ログレベル (debug, info, warn, error)",
		"Suppress all log output":                       "すべてのログ出力を抑制",
		"Number of samples to draw":                     "抽出するサンプル数",
		"Number of samples to export":                   "書き出すサンプル数",
		"First sample index":                            "最初のサンプルインデックス",
		"Output directory":                              "出力ディレクトリ",
	})
}
