package advisor

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
)

// Catalog maps setting fields and message ids to display text.
//
// Title keys are setting fields with the server id removed, so
// "Servers/3/ssl" is looked up as "Servers/ssl". Texts may contain
// {placeholders} that the advisor fills in.
type Catalog interface {
	Title(field string) string
	Text(id string) string
}

// Message ids.
const (
	TextArbitraryServer   = "AllowArbitraryServer"
	TextSSL               = "ssl"
	TextAuthConfig        = "auth_config"
	TextAllowNoPassword   = "AllowNoPassword"
	TextSecretGenerated   = "blowfish_secret"
	TextDirectory         = "directory"
	TextCookieValidityGC  = "LoginCookieValidity_gc"
	TextCookieValidityMax = "LoginCookieValidity_max"
	TextCookieStore       = "LoginCookieStore"
	TextZipImport         = "ZipDump_import"
	TextZipExport         = "ZipDump_export"
	TextBZip              = "BZipDump"
	TextGZip              = "GZipDump"
)

const (
	placeholderFunctions     = "{functions}"
	placeholderGCMaxLifetime = "{gc_maxlifetime}"
)

var defaultTitles = map[string]string{
	"AllowArbitraryServer":    "Allow login to any database server",
	"Servers/ssl":             "Use SSL",
	"Servers/auth_type":       "Authentication type",
	"Servers/AllowNoPassword": "Allow logins without a password",
	"blowfish_secret":         "Blowfish secret",
	"SaveDir":                 "Save directory",
	"TempDir":                 "Temporary directory",
	"LoginCookieValidity":     "Login cookie validity",
	"LoginCookieStore":        "Login cookie store",
	"ZipDump":                 "ZIP",
	"BZipDump":                "Bzip2",
	"GZipDump":                "GZip",
}

var defaultTexts = map[string]string{
	TextArbitraryServer: "This option should be disabled as it allows attackers to bruteforce login to any database server. " +
		"If you feel this is necessary, restrict login to a fixed server list or a trusted proxies list. " +
		"IP-based protection with trusted proxies may not be reliable if your IP belongs to an ISP where thousands of users are connected.",
	TextSSL: "You should use SSL connections if your database server supports it.",
	TextAuthConfig: "You set the config authentication type and included username and password for auto-login, " +
		"which is not a desirable option for live hosts. Anyone who knows or guesses the URL can directly access the panel. " +
		"Set authentication type to cookie or http.",
	TextAllowNoPassword: "You allow for connecting to the server without a password.",
	TextSecretGenerated: "You didn't have blowfish secret set and have enabled cookie authentication, " +
		"so a key was automatically generated for you. It is used to encrypt cookies; you don't need to remember it.",
	TextDirectory: "This value should be double checked to ensure that this directory is neither world accessible " +
		"nor readable or writable by other users on your server.",
	TextCookieValidityGC: "Login cookie validity greater than session.gc_maxlifetime may cause random session invalidation " +
		"(currently session.gc_maxlifetime is " + placeholderGCMaxLifetime + ").",
	TextCookieValidityMax: "Login cookie validity should be set to 1800 seconds (30 minutes) at most. " +
		"Values larger than 1800 may pose a security risk such as impersonation.",
	TextCookieStore: "If using cookie authentication and Login cookie store is not 0, " +
		"Login cookie validity must be set to a value less or equal to it.",
	TextZipImport: "Zip decompression requires functions (" + placeholderFunctions + ") which are unavailable on this system.",
	TextZipExport: "Zip compression requires functions (" + placeholderFunctions + ") which are unavailable on this system.",
	TextBZip:      "Bzip2 compression and decompression requires functions (" + placeholderFunctions + ") which are unavailable on this system.",
	TextGZip:      "GZip compression and decompression requires functions (" + placeholderFunctions + ") which are unavailable on this system.",
}

// MapCatalog is a Catalog backed by two maps. Missing entries fall back to
// the key itself.
type MapCatalog struct {
	Titles map[string]string `yaml:"titles"`
	Texts  map[string]string `yaml:"texts"`
}

// Title implements Catalog.
func (c *MapCatalog) Title(field string) string {
	if t, ok := c.Titles[field]; ok {
		return t
	}
	return field
}

// Text implements Catalog.
func (c *MapCatalog) Text(id string) string {
	if t, ok := c.Texts[id]; ok {
		return t
	}
	return id
}

// DefaultCatalog returns the built-in English texts.
func DefaultCatalog() *MapCatalog {
	c := &MapCatalog{
		Titles: make(map[string]string, len(defaultTitles)),
		Texts:  make(map[string]string, len(defaultTexts)),
	}
	for k, v := range defaultTitles {
		c.Titles[k] = v
	}
	for k, v := range defaultTexts {
		c.Texts[k] = v
	}
	return c
}

// ParseCatalog overlays the YAML document data on the default catalog.
func ParseCatalog(data []byte) (*MapCatalog, error) {
	var overlay MapCatalog
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, err
	}

	c := DefaultCatalog()
	for k, v := range overlay.Titles {
		c.Titles[k] = v
	}
	for k, v := range overlay.Texts {
		c.Texts[k] = v
	}
	return c, nil
}

// LoadCatalog reads a YAML catalog file and overlays it on the defaults.
func LoadCatalog(path string) (*MapCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dberrors.ConfigError(fmt.Sprintf("failed to read catalog %s", path), err).
			WithDetail("path", path)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, dberrors.ConfigError(fmt.Sprintf("failed to parse catalog %s", path), err).
			WithDetail("path", path)
	}
	return c, nil
}

// titleKey strips the server id: "Servers/3/ssl" becomes "Servers/ssl".
func titleKey(field string) string {
	rest, ok := strings.CutPrefix(field, "Servers/")
	if !ok {
		return field
	}
	if _, f, found := strings.Cut(rest, "/"); found {
		return "Servers/" + f
	}
	return field
}

func fill(text string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(text)
}
