package util

func GetAppName() string {
	return "DocControl"
}
