package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses the daemon flags from args (usually os.Args[1:]).
//
// Flags:
//
//	-a control API address in format [host]:[port]
//	-grpc-address gRPC health address in format [host]:[port]
//	-l local SQLite DSN
//	-r remote Postgres DSN
//	-s3-endpoint object storage endpoint
//	-media-bucket general media bucket
//	-restricted-bucket restricted asset bucket
//	-c/-config json file path with configs
//	-session-token access token of the account
//	-sync-interval background full-sync period (e.g. "5m")
//	-concurrency per-record fan-out bound
//	-request-timeout per network call timeout (e.g. "30s")
func ParseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("syncd", flag.ContinueOnError)

	var httpAddress, grpcAddress NetAddress
	var localDSN, remoteDSN string
	var s3Endpoint, mediaBucket, restrictedBucket string
	var jsonConfigPath string
	var sessionToken string
	var syncInterval, requestTimeout time.Duration
	var concurrency int

	fs.Var(&httpAddress, "a", "Control API address host:port")
	fs.Var(&grpcAddress, "grpc-address", "gRPC health address host:port")
	fs.StringVar(&localDSN, "l", "", "Local SQLite DSN")
	fs.StringVar(&remoteDSN, "r", "", "Remote Postgres DSN")
	fs.StringVar(&s3Endpoint, "s3-endpoint", "", "Object storage endpoint")
	fs.StringVar(&mediaBucket, "media-bucket", "", "General media bucket")
	fs.StringVar(&restrictedBucket, "restricted-bucket", "", "Restricted asset bucket")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&sessionToken, "session-token", "", "Account access token")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Background full-sync interval (e.g., 5m)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Per-call network timeout (e.g., 30s)")
	fs.IntVar(&concurrency, "concurrency", 0, "Per-record fan-out bound")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &StructuredConfig{
		App: App{
			SessionToken: sessionToken,
		},
		Storage: Storage{
			Local:  LocalDB{DSN: localDSN},
			Remote: RemoteDB{DSN: remoteDSN},
			Objects: Objects{
				Endpoint:         s3Endpoint,
				MediaBucket:      mediaBucket,
				RestrictedBucket: restrictedBucket,
			},
		},
		Sync: Sync{
			Interval:       syncInterval,
			Concurrency:    concurrency,
			RequestTimeout: requestTimeout,
		},
		Server: Server{
			HTTPAddress: httpAddress.String(),
			GRPCAddress: grpcAddress.String(),
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 || port > 65535 {
		return errors.New("port number must be in range 1..65535")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(host)
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
