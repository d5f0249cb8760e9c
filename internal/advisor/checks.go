package advisor

import (
	"html"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Aman-CERP/dbadvisor/internal/capability"
	"github.com/Aman-CERP/dbadvisor/internal/configstore"
	"github.com/Aman-CERP/dbadvisor/internal/cookiecrypt"
	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
)

// Setting paths read by the checks.
const (
	keyArbitraryServer = "AllowArbitraryServer"
	keySecret          = "blowfish_secret"
	keySaveDir         = "SaveDir"
	keyTempDir         = "TempDir"
	keyCookieValidity  = "LoginCookieValidity"
	keyCookieStore     = "LoginCookieStore"
	keyZipDump         = "ZipDump"
	keyBZipDump        = "BZipDump"
	keyGZipDump        = "GZipDump"

	// MaxRecommendedCookieValidity is the recommended login cookie validity
	// cap in seconds.
	MaxRecommendedCookieValidity = 1800

	defaultCookieValidity = 1440
	defaultAuthType       = "cookie"
)

func (p *pass) checkArbitraryServer() error {
	if p.cfg.Bool(keyArbitraryServer, false) {
		p.add(Notice, keyArbitraryServer, keyArbitraryServer,
			p.title(keyArbitraryServer), p.catalog.Text(TextArbitraryServer))
	}
	return nil
}

// displayName is the HTML-escaped server name used in titles. Plain
// "localhost" gets the server id appended so several local profiles can be
// told apart.
func displayName(name string, id int) string {
	if name == "localhost" {
		name += " [" + strconv.Itoa(id) + "]"
	}
	return html.EscapeString(name)
}

func (p *pass) checkServers() error {
	p.report.ServerCount = p.cfg.ServerCount()

	// Every qualifying server compares against the secret as it was when the
	// pass started; with several of them the last generated key is the one
	// left in the store.
	secret := p.cfg.Value(keySecret, configstore.NullValue())

	for i := 1; i <= p.report.ServerCount; i++ {
		if err := p.ctx.Err(); err != nil {
			return dberrors.InternalError("advisory pass cancelled", err)
		}

		authType := p.cfg.String(configstore.ServerPath(i, "auth_type"), defaultAuthType)
		cookieAuth := authType == "cookie"
		if cookieAuth {
			p.report.CookieAuthUsed = true
		}
		name := displayName(p.cfg.ServerName(i), i)

		if cookieAuth && !validSecret(secret) {
			if err := p.generateSecret(i); err != nil {
				return err
			}
		}

		sslField := configstore.ServerPath(i, "ssl")
		if !p.cfg.Bool(sslField, false) {
			p.add(Notice, sslField, sslField,
				p.title(sslField)+" ("+name+")", p.catalog.Text(TextSSL))
		}

		authField := configstore.ServerPath(i, "auth_type")
		if authType == "config" &&
			p.cfg.String(configstore.ServerPath(i, "user"), "") != "" &&
			p.cfg.String(configstore.ServerPath(i, "password"), "") != "" {
			p.add(Notice, authField, authField,
				p.title(authField)+" ("+name+")", p.catalog.Text(TextAuthConfig))
		}

		noPassField := configstore.ServerPath(i, "AllowNoPassword")
		if p.cfg.Bool(configstore.ServerPath(i, "AllowRoot"), true) && p.cfg.Bool(noPassField, false) {
			p.add(Notice, noPassField, noPassField,
				p.title(noPassField)+" ("+name+")", p.catalog.Text(TextAllowNoPassword))
		}

		if err := p.cfg.Err(); err != nil {
			return dberrors.StoreError("configuration store unavailable", err).
				WithDetail("server", strconv.Itoa(i))
		}
	}
	return nil
}

func validSecret(v configstore.Value) bool {
	s, ok := v.StringOK()
	return ok && len(s) == cookiecrypt.KeySize
}

func (p *pass) generateSecret(server int) error {
	key, err := cookiecrypt.GenerateKey(p.random)
	if err != nil {
		return dberrors.New(dberrors.ErrCodeSecretGeneration, "failed to generate cookie secret", err)
	}
	if err := p.store.Set(keySecret, configstore.StringValue(string(key))); err != nil {
		return dberrors.WriteError("failed to store generated cookie secret", err)
	}
	p.report.SecretGenerated = true
	p.logger.Info("generated cookie secret", slog.Int("server", server))
	return nil
}

func (p *pass) checkSecretNotice() error {
	if p.report.CookieAuthUsed && p.report.SecretGenerated {
		p.add(Notice, keySecret, keySecret, p.title(keySecret), p.catalog.Text(TextSecretGenerated))
	}
	return nil
}

func (p *pass) checkDirectories() error {
	for _, key := range []string{keySaveDir, keyTempDir} {
		if v := p.cfg.Value(key, configstore.NullValue()); v.Truthy() {
			p.add(Notice, key, key, p.title(key), p.catalog.Text(TextDirectory))
		}
	}
	return nil
}

func (p *pass) checkLoginCookie() error {
	validity := p.cfg.Int(keyCookieValidity, defaultCookieValidity)
	store := p.cfg.Int(keyCookieStore, 0)

	if validity > p.gcMaxLife {
		p.add(Error, keyCookieValidity, keyCookieValidity, p.title(keyCookieValidity),
			fill(p.catalog.Text(TextCookieValidityGC), placeholderGCMaxLifetime, strconv.FormatInt(p.gcMaxLife, 10)))
	}
	if validity > MaxRecommendedCookieValidity {
		p.add(Notice, keyCookieValidity+"_max", keyCookieValidity, p.title(keyCookieValidity),
			p.catalog.Text(TextCookieValidityMax))
	}
	if store != 0 && validity > store {
		p.add(Error, keyCookieStore, keyCookieStore, p.title(keyCookieStore),
			p.catalog.Text(TextCookieStore))
	}
	return nil
}

func (p *pass) checkZip() error {
	if !p.cfg.Bool(keyZipDump, false) {
		return nil
	}

	readOK, err := p.available(capability.ZipRead)
	if err != nil {
		return err
	}
	if !readOK {
		p.add(Error, keyZipDump+"_import", keyZipDump, p.title(keyZipDump),
			fill(p.catalog.Text(TextZipImport), placeholderFunctions, capability.ZipRead))
	}

	writeOK, err := p.available(capability.ZipWrite)
	if err != nil {
		return err
	}
	if !writeOK {
		p.add(Error, keyZipDump+"_export", keyZipDump, p.title(keyZipDump),
			fill(p.catalog.Text(TextZipExport), placeholderFunctions, capability.ZipWrite))
	}
	return nil
}

func (p *pass) checkBZip() error {
	return p.checkReadWrite(keyBZipDump, TextBZip, capability.Bz2Read, capability.Bz2Write)
}

func (p *pass) checkGZip() error {
	return p.checkReadWrite(keyGZipDump, TextGZip, capability.GzRead, capability.GzWrite)
}

// checkReadWrite reports one error naming every missing capability of a
// compression format whose feature flag is on.
func (p *pass) checkReadWrite(flag, textID string, names ...string) error {
	if !p.cfg.Bool(flag, false) {
		return nil
	}

	var missing []string
	for _, name := range names {
		ok, err := p.available(name)
		if err != nil {
			return err
		}
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		p.add(Error, flag, flag, p.title(flag),
			fill(p.catalog.Text(textID), placeholderFunctions, strings.Join(missing, ", ")))
	}
	return nil
}
