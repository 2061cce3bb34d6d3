package types

import (
	"path/filepath"
	"time"
)

// ConversionBackend identifies where the office suite runs.
type ConversionBackend string

const (
	// BackendLocal runs the soffice binary found on PATH (or at Binary).
	BackendLocal ConversionBackend = "local"
	// BackendContainer runs soffice inside a docker or podman container.
	BackendContainer ConversionBackend = "container"
)

const (
	defaultBinary        = "soffice"
	defaultImage         = "libreoffice:latest"
	defaultTimeout       = 2 * time.Minute
	defaultIMAPPort      = 993
	defaultSMTPPort      = 465
	defaultDraftsFolder  = "Drafts"
	defaultHistoryLimit  = 20
	defaultLogLevel      = "warn"
	defaultSecretsDir    = ".secrets"
	defaultJournalSubdir = ".local/state/officebridge"
	defaultJournalFile   = "journal.db"
)

// ConversionConfig holds settings for document conversion.
type ConversionConfig struct {
	// Backend selects local or container execution of the office suite.
	Backend ConversionBackend `mapstructure:"backend" json:"backend" yaml:"backend"`

	// Binary is the soffice executable for the local backend.
	Binary string `mapstructure:"binary" json:"binary" yaml:"binary"`

	// Image is the container image for the container backend. It must
	// provide soffice on its PATH.
	Image string `mapstructure:"image" json:"image" yaml:"image"`

	// Timeout bounds a single conversion, launch to quit.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`

	// WorkDir is the parent of per-conversion workspaces (default: os.TempDir).
	WorkDir string `mapstructure:"work_dir" json:"work_dir,omitempty" yaml:"work_dir,omitempty"`
}

// TLSMode selects how a mail connection is secured.
type TLSMode string

const (
	// TLSImplicit dials straight into TLS (IMAPS 993, SMTPS 465).
	TLSImplicit TLSMode = "tls"
	// TLSStartTLS dials plain and upgrades with STARTTLS.
	TLSStartTLS TLSMode = "starttls"
	// TLSNone never upgrades. Only for local test servers.
	TLSNone TLSMode = "none"
)

// Endpoint is a mail server address.
type Endpoint struct {
	Host string  `mapstructure:"host" json:"host" yaml:"host"`
	Port int     `mapstructure:"port" json:"port" yaml:"port"`
	TLS  TLSMode `mapstructure:"tls" json:"tls" yaml:"tls"`
}

// Account is a configured mail account. The CLI's --mailbox flag selects an
// account by substring of Name or Address.
type Account struct {
	// Name identifies the account and keys its credentials.
	Name string `mapstructure:"name" json:"name" yaml:"name"`

	// Address is the sender address (e.g. "ops@example.com").
	Address string `mapstructure:"address" json:"address" yaml:"address"`

	// DisplayName is used in the From header when set.
	DisplayName string `mapstructure:"display_name" json:"display_name,omitempty" yaml:"display_name,omitempty"`

	// Username authenticates against IMAP and SMTP (default: Address).
	Username string `mapstructure:"username" json:"username,omitempty" yaml:"username,omitempty"`

	IMAP Endpoint `mapstructure:"imap" json:"imap" yaml:"imap"`
	SMTP Endpoint `mapstructure:"smtp" json:"smtp" yaml:"smtp"`

	// DraftsFolder is the folder drafts are stored in (default "Drafts").
	DraftsFolder string `mapstructure:"drafts_folder" json:"drafts_folder" yaml:"drafts_folder"`

	// SentFolder, when set, receives a copy of every sent message.
	SentFolder string `mapstructure:"sent_folder" json:"sent_folder,omitempty" yaml:"sent_folder,omitempty"`
}

// HasIMAP reports whether the account has a mail store configured.
func (a Account) HasIMAP() bool { return a.IMAP.Host != "" }

// HasSMTP reports whether the account can send mail.
func (a Account) HasSMTP() bool { return a.SMTP.Host != "" }

// Login returns the username used to authenticate.
func (a Account) Login() string {
	if a.Username != "" {
		return a.Username
	}
	return a.Address
}

// JournalConfig holds settings for the operation journal.
type JournalConfig struct {
	// Path is the SQLite database file.
	Path string `mapstructure:"path" json:"path" yaml:"path"`

	// Disabled turns journaling off.
	Disabled bool `mapstructure:"disabled" json:"disabled" yaml:"disabled"`

	// HistoryLimit is the default number of entries shown by history.
	HistoryLimit int `mapstructure:"history_limit" json:"history_limit" yaml:"history_limit"`
}

// Config is the complete officebridge configuration.
type Config struct {
	Conversion ConversionConfig `mapstructure:"conversion" json:"conversion" yaml:"conversion"`
	Accounts   []Account        `mapstructure:"accounts" json:"accounts" yaml:"accounts"`
	Journal    JournalConfig    `mapstructure:"journal" json:"journal" yaml:"journal"`

	// SecretsDir holds one file per secret, named "<account>-password".
	SecretsDir string `mapstructure:"secrets_dir" json:"secrets_dir" yaml:"secrets_dir"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"log_level" json:"log_level" yaml:"log_level"`
}

// ApplyDefaults fills unset fields. home is the user's home directory and
// may be empty, in which case the journal lives in the working directory.
func (c *Config) ApplyDefaults(home string) {
	if c.Conversion.Backend == "" {
		c.Conversion.Backend = BackendLocal
	}
	if c.Conversion.Binary == "" {
		c.Conversion.Binary = defaultBinary
	}
	if c.Conversion.Image == "" {
		c.Conversion.Image = defaultImage
	}
	if c.Conversion.Timeout <= 0 {
		c.Conversion.Timeout = defaultTimeout
	}

	for i := range c.Accounts {
		a := &c.Accounts[i]
		if a.IMAP.Host != "" {
			if a.IMAP.TLS == "" {
				a.IMAP.TLS = TLSImplicit
			}
			if a.IMAP.Port == 0 {
				a.IMAP.Port = defaultPort(a.IMAP.TLS, defaultIMAPPort, 143)
			}
		}
		if a.SMTP.Host != "" {
			if a.SMTP.TLS == "" {
				a.SMTP.TLS = TLSImplicit
			}
			if a.SMTP.Port == 0 {
				a.SMTP.Port = defaultPort(a.SMTP.TLS, defaultSMTPPort, 587)
			}
		}
		if a.DraftsFolder == "" {
			a.DraftsFolder = defaultDraftsFolder
		}
	}

	if c.Journal.Path == "" {
		c.Journal.Path = filepath.Join(home, defaultJournalSubdir, defaultJournalFile)
	}
	if c.Journal.HistoryLimit <= 0 {
		c.Journal.HistoryLimit = defaultHistoryLimit
	}
	if c.SecretsDir == "" {
		c.SecretsDir = defaultSecretsDir
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

func defaultPort(mode TLSMode, implicit, plain int) int {
	if mode == TLSImplicit {
		return implicit
	}
	return plain
}
