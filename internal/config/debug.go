package config

import "os"

func IsDebug() bool {
	return os.Getenv("CHRONICLE_DEBUG") == "1"
}
