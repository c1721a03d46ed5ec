package utils

import (
	"fmt"
	"os"
	"strconv"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/parqedit/parqedit/gologger"
	"github.com/segmentio/ksuid"
)

var logger = gologger.NewLogger()

func GetEnvOrDefault(env, defaultVal string) string {
	e := os.Getenv(env)
	if e == "" {
		return defaultVal
	}
	return e
}

func GetEnvOrDefaultInt(env string, defaultVal int64) int64 {
	e := os.Getenv(env)
	if e == "" {
		return defaultVal
	}
	intVal, err := strconv.ParseInt(e, 10, 64)
	if err != nil {
		logger.Error().Msg(fmt.Sprintf("Failed to parse string to int '%s'", env))
		os.Exit(1)
	}
	return intVal
}

// GenSessionID returns a short random ID used to address edit sessions.
// Reduced character set that's less probable to mis-type.
func GenSessionID() string {
	return "s_" + gonanoid.MustGenerate("abcdefghikmonpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ0123456789", 8)
}

// GenKSortedID generates a k-sortable ID for written artifacts so listings
// sort by creation time.
func GenKSortedID(prefix string) string {
	return prefix + ksuid.New().String()
}
