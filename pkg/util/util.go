package util

func ReverseG[T any](arr []T) []T {
	copyArr := make([]T, len(arr)) // should do on the copy
	copy(copyArr, arr)
	for i, j := 0, len(copyArr)-1; i < j; i, j = i+1, j-1 {
		copyArr[i], copyArr[j] = copyArr[j], copyArr[i]
	}
	return copyArr
}
