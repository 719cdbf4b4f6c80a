package glob

// Match reports whether s matches the glob pattern.
//
// The implementation is an iterative backtracking matcher: on a `*` it
// records the position of the star and the position in s, and on a
// mismatch it resumes one byte further after the most recent star. This
// keeps matching linear for the common single-star patterns.
func Match(pattern, s string) bool {
	var pi, si int
	starPi, starSi := -1, 0

	for si < len(s) {
		if pi < len(pattern) {
			switch c := pattern[pi]; c {
			case '*':
				// Collapse consecutive stars.
				for pi < len(pattern) && pattern[pi] == '*' {
					pi++
				}
				starPi, starSi = pi, si
				continue
			case '?':
				pi++
				si++
				continue
			case '[':
				if ok, next := matchClass(pattern, pi, s[si]); ok {
					pi = next
					si++
					continue
				}
			case '\\':
				if pi+1 < len(pattern) {
					if pattern[pi+1] == s[si] {
						pi += 2
						si++
						continue
					}
				} else if c == s[si] {
					pi++
					si++
					continue
				}
			default:
				if c == s[si] {
					pi++
					si++
					continue
				}
			}
		}

		// Mismatch: backtrack to the last star, consuming one more byte.
		if starPi < 0 {
			return false
		}
		starSi++
		pi, si = starPi, starSi
	}

	// s consumed; the rest of the pattern must be stars only.
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}

// matchClass matches the byte c against the class starting at pattern[start],
// which must be '['. It returns whether c matched and the index just past
// the closing bracket. An unterminated class matches literally nothing.
func matchClass(pattern string, start int, c byte) (bool, int) {
	i := start + 1
	negate := false
	if i < len(pattern) && (pattern[i] == '^' || pattern[i] == '!') {
		negate = true
		i++
	}

	matched := false
	first := true
	for i < len(pattern) && (first || pattern[i] != ']') {
		first = false
		lo := pattern[i]
		if lo == '\\' && i+1 < len(pattern) {
			i++
			lo = pattern[i]
		}
		if i+2 < len(pattern) && pattern[i+1] == '-' && pattern[i+2] != ']' {
			hi := pattern[i+2]
			if lo <= c && c <= hi || hi <= c && c <= lo {
				matched = true
			}
			i += 3
			continue
		}
		if lo == c {
			matched = true
		}
		i++
	}
	if i >= len(pattern) {
		// Unterminated class never matches.
		return false, len(pattern)
	}
	i++ // skip ']'
	return matched != negate, i
}

// MatchBytes is Match for byte-slice inputs without forcing the caller to
// convert; the conversions below do not escape.
func MatchBytes(pattern, s []byte) bool {
	return Match(string(pattern), string(s))
}

// IsPlain reports whether the pattern contains no glob metacharacters,
// i.e. it can only match itself. Callers use this to route exact lookups
// past the matcher.
func IsPlain(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*', '?', '[', '\\':
			return false
		}
	}
	return true
}
