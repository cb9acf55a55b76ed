package main

import "flag"

// cliFlags holds the raw flag.Value destinations; Config is the typed
// result after parsing, mirroring the teacher's cliFlags/applyCLIOverrides
// split without pulling in its YAML/Viper machinery — this program takes
// no config file, matching the core's "no files, no environment" policy.
type cliFlags struct {
	udpAddr    string
	tcpAddr    string
	tcpBacklog int
	logLevel   string
	structured bool
	mangleBits int
	as112Zone  string
}

// Config is the resolved, typed configuration for one run of evldnsd.
type Config struct {
	UDPAddr    string
	TCPAddr    string
	TCPBacklog int
	LogLevel   string
	Structured bool
	MangleBits int
	AS112Zone  string
}

func parseFlags(args []string) (*cliFlags, error) {
	fs := flag.NewFlagSet("evldnsd", flag.ContinueOnError)
	f := &cliFlags{}
	fs.StringVar(&f.udpAddr, "udp", "127.0.0.1:5053", "UDP listen address")
	fs.StringVar(&f.tcpAddr, "tcp", "127.0.0.1:5053", "TCP listen address")
	fs.IntVar(&f.tcpBacklog, "tcp-backlog", 128, "TCP listen backlog")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.BoolVar(&f.structured, "log-json", false, "emit structured JSON logs")
	fs.IntVar(&f.mangleBits, "mangle-bits", 0, "bits to randomly flip in responses (0 disables mangling)")
	fs.StringVar(&f.as112Zone, "as112-zone", "", "if set, also register the as112 sink-zone handler for this qname")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func applyCLIOverrides(f *cliFlags) *Config {
	return &Config{
		UDPAddr:    f.udpAddr,
		TCPAddr:    f.tcpAddr,
		TCPBacklog: f.tcpBacklog,
		LogLevel:   f.logLevel,
		Structured: f.structured,
		MangleBits: f.mangleBits,
		AS112Zone:  f.as112Zone,
	}
}
