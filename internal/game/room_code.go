package game

import "math/rand"

// RoomCodeChars 房间码字符集
const RoomCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultRoomCodeLength 默认房间码长度
const DefaultRoomCodeLength = 6

// GenerateRoomCode 每位独立均匀取字符
func GenerateRoomCode(rng *rand.Rand, length int) string {
	if length <= 0 {
		length = DefaultRoomCodeLength
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = RoomCodeChars[rng.Intn(len(RoomCodeChars))]
	}
	return string(b)
}

// ValidRoomCode 校验房间码格式
func ValidRoomCode(code string, length int) bool {
	if length <= 0 {
		length = DefaultRoomCodeLength
	}
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
