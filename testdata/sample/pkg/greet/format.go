package greet

func Shout(s string) string {
	var out string
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			r = r - 32
		}
		out = out + string(r)
	}
	return out
}
