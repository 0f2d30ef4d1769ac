// Package flagx lets several components read their own flags from the same
// os.Args without failing on each other's.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// ParseOwn parses into fs only the arguments naming flags defined on fs.
// Both -name and --name are accepted. Boolean flags do not consume the next
// argument. Parsing stops at "--".
func ParseOwn(fs *flag.FlagSet, args []string) error {
	return fs.Parse(filter(args, func(name string) (bool, bool) {
		trimmed := strings.TrimPrefix(name, "-")
		trimmed = strings.TrimPrefix(trimmed, "-")
		f := fs.Lookup(trimmed)
		if f == nil {
			return false, false
		}
		return true, !isBoolFlag(f)
	}))
}

// ConfigFileFlag returns the path given with -c or -config, or "".
func ConfigFileFlag() string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file (JSON or YAML)")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = ParseOwn(fs, os.Args[1:])

	return path
}

// filter keeps the arguments whose flag name match accepts, written as
// "-name value" or "-name=value". match also reports whether the flag takes a
// separate value; an argument starting with "-" is never taken as one.
func filter(args []string, match func(name string) (known, takesValue bool)) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, inline := strings.Cut(arg, "=")
		known, takesValue := match(name)
		if !known {
			continue
		}
		out = append(out, arg)

		if !inline && takesValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}
