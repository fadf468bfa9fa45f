package auth

import "crypto/rand"

const base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// randString — криптослучайная строка над base62-алфавитом.
// Байты >= 248 отбрасываются (248 = 4*62): остаток делится на размер
// алфавита нацело, распределение равномерное.
func randString(n int) string {
	const limit = 248
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for {
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, base62[int(b)%len(base62)])
			if len(out) == n {
				return string(out)
			}
		}
	}
}
