package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"

	"github.com/hlstools/adproxy/pkg/logging"
	"github.com/spf13/pflag"
)

const (
	ModeStatic  = "static"
	ModeDynamic = "dynamic"
)

type ServerConfig struct {
	LogFormat            string `json:"logformat"`
	LogLevel             string `json:"loglevel"`
	ListenAddr           string `json:"listenaddr"`
	Port                 int    `json:"port"`
	MasterPlaylistURL    string `json:"masterplaylisturl"`
	AdServerEndpoint     string `json:"adserverendpoint"`
	AdInsertionMode      string `json:"adinsertionmode"`
	InterstitialsAddress string `json:"interstitialsaddress"`
	AdDurationS          int    `json:"addurations"`
	AdCycleS             int    `json:"adcycles"`
	AdNumber             int    `json:"adnumber"`
	TestAssets           bool   `json:"testassets"`
	TimeoutS             int    `json:"timeouts"`
	CertPath             string `json:"certpath"`
	KeyPath              string `json:"keypath"`
}

var DefaultConfig = ServerConfig{
	LogFormat:       "pretty",
	LogLevel:        "info",
	ListenAddr:      "0.0.0.0",
	Port:            8080,
	AdInsertionMode: ModeStatic,
	AdDurationS:     13,
	AdCycleS:        30,
	AdNumber:        1000,
	TimeoutS:        60,
}

// LoadConfig loads defaults, config file, command line, and finally applies environment variables
//
// InterstitialsAddress defaults to http://localhost:<port> when not set.
func LoadConfig(args []string) (*ServerConfig, error) {
	// First set default values
	k := koanf.New(".")
	defaults := DefaultConfig
	k.Load(structs.Provider(defaults, "json"), nil)

	f := pflag.NewFlagSet("adproxy", pflag.ContinueOnError)
	f.Usage = func() {
		parts := strings.Split(args[0], "/")
		name := parts[len(parts)-1]
		fmt.Fprintf(os.Stderr, "Run as %s [options]:\n", name)
		f.PrintDefaults()
	}
	// Path to a config file to load into koanf along with some config params.
	cfgFile := f.String("cfg", "", "path to a JSON config file")
	f.String("listenaddr", k.String("listenaddr"), "bind address")
	f.Int("port", k.Int("port"), "HTTP port")
	lf := strings.Join(logging.LogFormats, ", ")
	f.String("logformat", k.String("logformat"), fmt.Sprintf("log format [%s]", lf))
	ll := strings.Join(logging.LogLevels, ", ")
	f.String("loglevel", k.String("loglevel"), fmt.Sprintf("log level [%s]", ll))
	f.String("masterplaylisturl", k.String("masterplaylisturl"), "origin master playlist URL")
	f.String("adserverendpoint", k.String("adserverendpoint"), "VAST ad server endpoint")
	f.String("adinsertionmode", k.String("adinsertionmode"), "ad insertion mode [static, dynamic]")
	f.String("interstitialsaddress", k.String("interstitialsaddress"), "public base URL for interstitial asset lists")
	f.Int("addurations", k.Int("addurations"), "default ad break duration (seconds)")
	f.Int("adcycles", k.Int("adcycles"), "repeating cycle between static ad breaks (seconds)")
	f.Int("adnumber", k.Int("adnumber"), "number of static ad slots")
	f.Bool("testassets", k.Bool("testassets"), "return a canned test asset list instead of calling the ad server")
	f.Int("timeouts", k.Int("timeouts"), "timeout for all requests (seconds)")
	f.String("certpath", k.String("certpath"), "path to TLS certificate")
	f.String("keypath", k.String("keypath"), "path to TLS private key")
	if err := f.Parse(args[1:]); err != nil {
		return nil, fmt.Errorf("command line parse: %w", err)
	}

	// Load the config file provided in the commandline.
	if *cfgFile != "" {
		cf := file.Provider(*cfgFile)
		if err := k.Load(cf, json.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Possibly override config file with commandline parameters
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("parsing cli: %v", err)
	}

	// Overload with environment variables
	k.Load(env.Provider("ADPROXY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "ADPROXY_")), "_", ".", -1)
	}), nil)

	// Default the public asset-list base to the local bind port
	if k.String("interstitialsaddress") == "" {
		k.Load(confmap.Provider(map[string]any{
			"interstitialsaddress": fmt.Sprintf("http://localhost:%d", k.Int("port")),
		}, "."), nil)
	}

	// Unmarshal into cfg
	var cfg ServerConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the combinations that cannot be defaulted away.
func (c *ServerConfig) Validate() error {
	switch c.AdInsertionMode {
	case ModeStatic, ModeDynamic:
	default:
		return fmt.Errorf("adinsertionmode %q not known, must be static or dynamic", c.AdInsertionMode)
	}
	if c.MasterPlaylistURL == "" {
		return fmt.Errorf("masterplaylisturl must be set")
	}
	if c.AdServerEndpoint == "" && !c.TestAssets {
		return fmt.Errorf("adserverendpoint must be set unless testassets is enabled")
	}
	return nil
}
