package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/dbadvisor/internal/configstore"
	"github.com/Aman-CERP/dbadvisor/internal/cookiecrypt"
	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
	"github.com/Aman-CERP/dbadvisor/internal/output"
)

const secretPath = "blowfish_secret"

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate or verify the cookie encryption secret",
		Long: `Manage blowfish_secret, the server-side key that encrypts login cookies
when a server uses cookie authentication. The key must be exactly 32 bytes.`,
		Example: `  # Print a new secret (base64)
  dbadvisor secret generate

  # Write a new secret into a store
  dbadvisor secret generate --store config.yaml

  # Check the stored secret
  dbadvisor secret verify --store config.yaml`,
	}

	cmd.AddCommand(newSecretGenerateCmd())
	cmd.AddCommand(newSecretVerifyCmd())

	return cmd
}

func newSecretGenerateCmd() *cobra.Command {
	var store string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new secret",
		Long: `Generate a cryptographically random secret of the required length.

Without --store the secret is printed base64 encoded. With --store it is
written to blowfish_secret and the store is saved.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSecretGenerate(cmd, store, rand.Reader)
		},
	}

	cmd.Flags().StringVar(&store, "store", "", "Write the secret into this configuration store")

	return cmd
}

func newSecretVerifyCmd() *cobra.Command {
	var store string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the stored secret",
		Long:  `Check that blowfish_secret has the required length and can encrypt and decrypt a cookie.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSecretVerify(cmd, store)
		},
	}

	cmd.Flags().StringVar(&store, "store", "", "Configuration store (defaults to the configured store)")

	return cmd
}

func runSecretGenerate(cmd *cobra.Command, uri string, random io.Reader) error {
	key, err := cookiecrypt.GenerateKey(random)
	if err != nil {
		return dberrors.New(dberrors.ErrCodeSecretGeneration, "failed to generate cookie secret", err)
	}

	if uri == "" {
		fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(key))
		return nil
	}

	store, err := configstore.Open(uri)
	if err != nil {
		return err
	}
	defer closeStore(store)

	if err := store.Set(secretPath, configstore.StringValue(string(key))); err != nil {
		return dberrors.WriteError("failed to store cookie secret", err)
	}
	if saver, ok := store.(configstore.Saver); ok {
		if err := saver.Save(cmd.Context()); err != nil {
			return err
		}
	}

	output.New(cmd.OutOrStdout()).Successf("Wrote a new %d-byte %s to %s", cookiecrypt.KeySize, secretPath, storePath(uri))
	return nil
}

func runSecretVerify(cmd *cobra.Command, uri string) error {
	if uri == "" {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		uri = cfg.Store
	}

	store, err := configstore.Open(uri)
	if err != nil {
		return err
	}
	defer closeStore(store)

	r := configstore.NewReader(store)
	v := r.Value(secretPath, configstore.NullValue())
	if err := r.Err(); err != nil {
		return dberrors.StoreError("configuration store unavailable", err)
	}

	out := output.New(cmd.OutOrStdout())
	secret, ok := v.StringOK()
	if !ok || !cookiecrypt.ValidKey([]byte(secret)) {
		return dberrors.ValidationError(fmt.Sprintf("%s is not a %d-byte key", secretPath, cookiecrypt.KeySize), cookiecrypt.ErrKeySize).
			WithDetail("length", fmt.Sprint(len(secret))).
			WithSuggestion("run 'dbadvisor secret generate --store " + uri + "'")
	}
	if err := cookiecrypt.Verify([]byte(secret), rand.Reader); err != nil {
		return dberrors.InternalError("cookie secret failed a round trip", err)
	}

	out.Successf("%s is a valid %d-byte key", secretPath, cookiecrypt.KeySize)
	return nil
}

// closeStore closes stores that hold resources.
func closeStore(s configstore.Store) {
	if c, ok := s.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("failed to close store", slog.String("error", err.Error()))
		}
	}
}
