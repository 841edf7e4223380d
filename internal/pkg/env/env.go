package env

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

// Env holds the values of the loaded .env file.
var Env map[string]string

// candidates are searched in order, relative to the working directory.
var candidates = []string{
	".env",
	"../../.env",
	"../../../.env",
}

// SetupEnvFile loads the first .env file found. Without one the process
// environment is used as is, which is the normal case in containers.
func SetupEnvFile() {
	Env = load(candidates...)
}

func load(files ...string) map[string]string {
	for _, f := range files {
		if values, err := godotenv.Read(f); err == nil {
			log.Infof("[Env] Loaded %s", f)
			return values
		}
	}
	log.Info("[Env] No .env file found, using process environment")
	return map[string]string{}
}

// Merged returns the process environment overlaid with values from the .env file.
func Merged() map[string]string {
	out := make(map[string]string, len(Env))
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	for k, v := range Env {
		out[k] = v
	}
	return out
}
