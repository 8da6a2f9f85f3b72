package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	DBUrl             string
	TokenSecret       string
	TokenTTL          time.Duration
	AdminEmail        string
	AdminPassword     string
	AdminPasswordHash string
	CORSOrigins       []string
	PublicSurveyBase  string
	BodyLimit         int64
	UploadDir         string
	PublicDir         string
	Debug             bool
	Seed              bool
}

// ParseFlags loads an optional .env file, then reads the command line.
// Every flag defaults to its environment variable.
func ParseFlags() (cfg Config, err error) {
	if err = godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return
	}
	return Parse(os.Args[1:], os.Getenv)
}

func Parse(args []string, getenv func(string) string) (cfg Config, err error) {
	env := func(name, def string) string {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v
		}
		return def
	}

	fs := flag.NewFlagSet("launchalot", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", env("HOST", "0.0.0.0"), "listen host name")
	var port uint
	fs.UintVar(&port, "port", envUint(env("PORT", ""), 4000), "listen port number")
	fs.StringVar(&cfg.DBUrl, "db-url", env("DB_URL", env("MONGO_URI", "launchalot.sqlite")), "path to SQLite3 DB file, or mongodb:// URL")
	fs.StringVar(&cfg.TokenSecret, "token-secret", env("JWT_SECRET", ""), "secret key for signing admin tokens")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", envDuration(env("TOKEN_TTL", ""), 7*24*time.Hour), "admin token TTL")
	fs.StringVar(&cfg.AdminEmail, "admin-email", env("ADMIN_EMAIL", ""), "admin account email")
	fs.StringVar(&cfg.AdminPassword, "admin-password", env("ADMIN_PASSWORD", ""), "admin account plain password")
	fs.StringVar(&cfg.AdminPasswordHash, "admin-password-hash", env("ADMIN_PASSWORD_HASH", ""), "admin account bcrypt password hash")
	var origins string
	fs.StringVar(&origins, "cors-origin", env("CORS_ORIGIN", "http://localhost:3000"), "comma separated list of allowed CORS origins")
	fs.StringVar(&cfg.PublicSurveyBase, "public-survey-base", env("PUBLIC_SURVEY_BASE", ""), "base URL of public survey links")
	var bodyLimit string
	fs.StringVar(&bodyLimit, "json-limit", env("JSON_LIMIT", "25MiB"), "maximum request body size (mb is decimal, MiB binary)")
	fs.StringVar(&cfg.UploadDir, "upload-dir", env("UPLOAD_DIR", "uploads"), "directory for uploaded files")
	fs.StringVar(&cfg.PublicDir, "public-dir", env("PUBLIC_DIR", "public"), "directory for public assets")
	fs.BoolVar(&cfg.Debug, "debug", envBool(env("DEBUG", "")), "log at DEBUG level")
	fs.BoolVar(&cfg.Seed, "seed", false, "insert sample data into an empty database and exit")

	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.PublicSurveyBase = strings.TrimRight(cfg.PublicSurveyBase, "/")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	var errs *multierror.Error
	limit, perr := humanize.ParseBytes(bodyLimit)
	if perr != nil {
		errs = multierror.Append(errs, errors.New("invalid parameter -json-limit: "+perr.Error()))
	}
	cfg.BodyLimit = int64(limit)

	// seeding never serves requests, so it needs no credentials
	if !cfg.Seed {
		if cfg.TokenSecret == "" {
			errs = multierror.Append(errs, errors.New("missing parameter -token-secret"))
		}
		if cfg.AdminEmail == "" {
			errs = multierror.Append(errs, errors.New("missing parameter -admin-email"))
		}
	}
	if cfg.TokenTTL <= 0 {
		errs = multierror.Append(errs, errors.New("parameter -token-ttl must be positive"))
	}

	err = errs.ErrorOrNil()
	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envUint(v string, def uint) uint {
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return def
	}
	return uint(n)
}

func envDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
