// Package flagx contains helpers for components that parse only a subset of
// the process flags, so several loaders can share os.Args without tripping
// over each other's flags.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs keeps only the flags listed in allowedFlags together with their
// values. Both "-c conf.json" and "--config=conf.json" forms are recognised.
// A separate value is only consumed when it does not itself look like a flag.
// The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// Sources holds the locations of the optional configuration sources.
type Sources struct {
	// ConfigFile is a JSON or YAML file (-c / -config).
	ConfigFile string
	// EnvFile is a dotenv file (-env).
	EnvFile string
}

// SourceFlags extracts -c/-config and -env from args (usually os.Args[1:]).
// Missing flags leave the corresponding field empty.
func SourceFlags(args []string) Sources {
	var s Sources

	fs := flag.NewFlagSet("sources", flag.ContinueOnError)
	fs.StringVar(&s.ConfigFile, "config", "", "path to config file (json or yaml)")
	fs.StringVar(&s.ConfigFile, "c", "", "path to config file (short)")
	fs.StringVar(&s.EnvFile, "env", "", "path to .env file")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config", "-env", "--env"}))

	return s
}
