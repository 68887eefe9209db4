package pairs

import "strings"

const (
	accentMark = "＼"
	smallKana  = "ぁぃぅぇぉゃゅょゎァィゥェォヵㇰヶㇱㇲㇳㇴㇵㇶㇷㇷ゚ㇸㇹㇺャュョㇻㇼㇽㇾㇿヮ"
)

// AccentText renders a pronunciation with the drop mark after the accented mora.
// Small kana belong to the preceding mora.
func AccentText(raw string, accentedMora int) string {
	runes := []rune(raw)
	var b strings.Builder
	mora := 0
	for i := 0; i < len(runes); {
		b.WriteRune(runes[i])
		i++
		mora++
		for i < len(runes) && strings.ContainsRune(smallKana, runes[i]) {
			b.WriteRune(runes[i])
			i++
		}
		if mora == accentedMora {
			b.WriteString(accentMark)
		}
	}
	return b.String()
}
