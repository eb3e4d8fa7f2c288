package chat

// indiaHelplines はクライシス判定時に開示する固定の相談窓口一覧。
var indiaHelplines = map[string]string{
	"AASRA":                 "91-9820466726",
	"Kiran Mental Health":   "1800-599-0019",
	"Vandrevala Foundation": "+91-9999666555",
}

// HelplineDirectory は相談窓口一覧のコピーを返す。
// 呼び出し側の変更が固定テーブルに波及しないようにする。
func HelplineDirectory() map[string]string {
	directory := make(map[string]string, len(indiaHelplines))
	for name, number := range indiaHelplines {
		directory[name] = number
	}
	return directory
}
