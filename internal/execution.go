package internal

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const defaultEnvFile string = ".env"

func GenerateId() string {
	return uuid.Must(uuid.NewRandom()).String()
}

// Envs builds the environment map used to configure every component; values
// read from the env file are overridden by the process environment. A missing
// default env file isn't an error, a missing explicit one is.
func Envs(envFile string) (map[string]string, error) {
	envs := make(map[string]string)
	explicit := envFile != ""
	if !explicit {
		envFile = defaultEnvFile
	}
	fileEnvs, err := godotenv.Read(envFile)
	switch {
	case err == nil:
		for key, value := range fileEnvs {
			envs[key] = value
		}
	case explicit || !os.IsNotExist(err):
		return nil, errors.Wrapf(err, "unable to read env file %s", envFile)
	}
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
	return envs, nil
}
