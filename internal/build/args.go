package build

import (
	"strings"
)

// ParseBuildArgs turns key[=value] strings into the build argument map of
// the image build API. A bare key takes its value from env, or "" when env
// does not define it. Later arguments override earlier ones.
func ParseBuildArgs(args []string, env map[string]string) map[string]*string {
	buildArgs := make(map[string]*string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			value = env[key]
		}
		buildArgs[key] = &value
	}
	return buildArgs
}
