// Package flagx helps several independent FlagSets share one command line.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs keeps only the arguments that belong to allowedFlags, so a
// FlagSet that knows a subset of the flags can parse os.Args without
// failing on the rest. Both "-k value" and "-k=value" are recognised; a
// separate value is taken when the next argument does not start with "-".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
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

// lookupStringFlag parses only the given aliases out of args and returns the
// value of the last one present. Unknown flags are left for other parsers.
func lookupStringFlag(args []string, names ...string) string {
	allowed := make([]string, 0, len(names))
	for _, n := range names {
		allowed = append(allowed, "-"+n)
	}

	var value string
	fs := flag.NewFlagSet(names[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
	}
	_ = fs.Parse(FilterArgs(args, allowed))

	return value
}

// JsonConfigFlags returns the JSON config path given with -c or -config,
// or an empty string when neither is present.
func JsonConfigFlags() string {
	return lookupStringFlag(os.Args[1:], "config", "c")
}

// EnvFileFlags returns the dotenv path given with -env-file, or an empty
// string when the flag is absent.
func EnvFileFlags() string {
	return lookupStringFlag(os.Args[1:], "env-file")
}
