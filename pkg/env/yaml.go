package env

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var configFile string

// LoadYAML merges a YAML config file into c. Absent keys keep their
// current values.
func (c *Config) LoadYAML(fn string) error {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%s: %v", fn, err)
	}
	return nil
}

// Parse parses the command line. The file given by -config is loaded
// first so explicit flags override it.
func Parse() {
	if fn := findConfigArg(os.Args[1:]); fn != "" {
		if err := defaultConfig.LoadYAML(fn); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	flag.Parse()
}

func findConfigArg(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(name, "config=") {
			return name[len("config="):]
		}
	}
	return ""
}
