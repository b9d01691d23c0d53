package util

import (
	"time"
)

var mockTime int64

func GetTime() int64 {
	if mockTime > 0 {
		return mockTime
	}
	return time.Now().Unix()
}

func SetMockTime(time int64) {
	mockTime = time
}

func GetMicrosTime() int64 {
	return time.Now().UnixNano()
}

func GetMockTimeInMicros() int64 {
	if mockTime > 0 {
		return mockTime * 1000 * 1000
	}
	return GetMicrosTime()
}
