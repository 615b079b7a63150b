package chat

// Truncate bounds s to at most limit bytes of UTF-8.
//
// Chats store the newest post first, so the head of s is the most recent
// data: Truncate keeps the longest prefix of whole characters that fits and
// drops the oldest tail. A character straddling the limit is dropped whole.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	cut := 0
	for i := range s {
		if i > limit {
			break
		}
		cut = i
	}
	return s[:cut]
}
