package common

func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

// Clone returns a copy of data that does not share its backing array.
func Clone(data []byte) []byte {
	if data == nil {
		return nil
	}

	res := make([]byte, len(data))
	copy(res, data)
	return res
}

// CStringCompare compares at most n bytes of a and b the way strncmp does. Comparison stops at the
// first zero byte; bytes past the end of a slice are treated as zero.
func CStringCompare(a, b []byte, n int) int {
	for i := 0; i < n; i++ {
		var x, y byte
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}

		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
		if x == 0 {
			return 0
		}
	}
	return 0
}
