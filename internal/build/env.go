package build

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"

	"github.com/railwayapp/livecompose/internal/utils/fs"
)

// LoadEnv builds the environment bare build arguments are looked up in:
// the dotenv files in order, then environ (KEY=value pairs, as returned by
// os.Environ) on top.
func LoadEnv(filesystem fs.FileSystem, environ []string, files ...string) (map[string]string, error) {
	env := make(map[string]string)

	for _, file := range files {
		content, err := filesystem.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", file, err)
		}

		values, err := godotenv.Unmarshal(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse env file %s: %w", file, err)
		}
		for key, value := range values {
			env[key] = value
		}
	}

	for _, pair := range environ {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}

	return env, nil
}
